package storage

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cloudinary configuration via environment variables:
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)

// UploadBase64Image performs a signed upload of a base64-encoded image and
// returns the hosted URL, or an empty string on any failure. Listing photos
// and KYC documents both go through here.
func UploadBase64Image(base64ImageSrc string, publicID string) string {
	if base64ImageSrc == "" {
		log.Println("media: empty base64 image")
		return ""
	}

	i := strings.Index(base64ImageSrc, ",")
	payload := base64ImageSrc
	if i != -1 {
		payload = base64ImageSrc[i+1:]
	}

	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")
	folder := os.Getenv("CLOUDINARY_FOLDER")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		log.Println("media: missing Cloudinary env vars")
		return ""
	}

	endpoint := "https://api.cloudinary.com/v1_1/" + cloudName + "/image/upload"

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+payload)
	form.Add("api_key", apiKey)

	finalPublicID := publicID
	if folder != "" {
		finalPublicID = folder + "/" + publicID
	}
	if finalPublicID != "" {
		form.Add("public_id", finalPublicID)
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)

	// Cloudinary signed uploads require a SHA1 over the sorted params + secret
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", finalPublicID, timestamp, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
	form.Add("signature", signature)

	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("media: failed to create upload request: %v", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("media: upload request failed: %v", err)
		return ""
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Printf("media: failed to read upload response: %v", err)
		return ""
	}

	if res.StatusCode != 200 {
		log.Printf("media: upload failed with status %d: %s", res.StatusCode, string(body))
		return ""
	}

	var cloudRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &cloudRes); err != nil {
		log.Printf("media: failed to parse upload response: %v", err)
		return ""
	}

	if cloudRes.Error.Message != "" {
		log.Printf("media: cloudinary error: %s", cloudRes.Error.Message)
		return ""
	}

	urlOut := cloudRes.SecureURL
	if urlOut == "" {
		urlOut = cloudRes.URL
	}
	return urlOut
}
