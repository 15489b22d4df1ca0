package services

import (
	"errors"
	"log"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
)

var (
	ErrOfferNotFound     = errors.New("offer not found")
	ErrInvalidTransition = errors.New("offer has already been resolved")
	ErrInvalidAmount     = errors.New("amount must be a positive value")
	ErrNotParty          = errors.New("user is not a party to this offer")
	ErrActiveOfferExists = errors.New("an active offer already exists for this property")
	ErrSelfOffer         = errors.New("cannot make an offer on your own property")
)

// OfferStore is the persistence boundary of the negotiation engine.
// TransitionIf must be a single atomic conditional write: apply updates only
// while the offer's status is still one of from, and report whether a row
// actually changed. The engine relies on that to serialize racing parties.
type OfferStore interface {
	Create(offer *models.Offer) error
	Get(id uint) (*models.Offer, error)
	HasActiveOffer(propertyID, buyerID uint) (bool, error)
	ListByBuyer(buyerID uint, status string) ([]models.Offer, error)
	ListBySeller(sellerID uint, status string) ([]models.Offer, error)
	TransitionIf(id uint, from []string, updates map[string]interface{}) (bool, error)
}

// OfferNotifier receives negotiation events after a transition commits.
// Delivery is best-effort and never fails the operation.
type OfferNotifier interface {
	NotifyOfferEvent(offer *models.Offer, event string)
}

// Negotiation events handed to the notifier.
const (
	OfferEventCreated   = "offer_received"
	OfferEventAccepted  = "offer_accepted"
	OfferEventRejected  = "offer_rejected"
	OfferEventCountered = "offer_countered"
)

// NegotiationEngine owns the offer lifecycle:
//
//	create            -> pending
//	pending   accept  -> accepted   (seller)
//	pending   reject  -> rejected   (seller)
//	pending   counter -> countered  (seller)
//	countered accept  -> accepted   (buyer answering the counter)
//	countered reject  -> rejected   (buyer answering the counter)
//
// accepted and rejected are terminal. There is no re-counter: a countered
// offer can only be accepted or rejected by the buyer.
type NegotiationEngine struct {
	store    OfferStore
	notifier OfferNotifier
}

func NewNegotiationEngine(store OfferStore, notifier OfferNotifier) *NegotiationEngine {
	return &NegotiationEngine{store: store, notifier: notifier}
}

// Create places a new pending offer by the buyer. Amount is immutable after
// this point; negotiation proceeds through CounterAmount.
func (e *NegotiationEngine) Create(propertyID, buyerID, sellerID uint, amount int64, message string) (*models.Offer, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if buyerID == sellerID {
		return nil, ErrSelfOffer
	}

	active, err := e.store.HasActiveOffer(propertyID, buyerID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveOfferExists
	}

	offer := &models.Offer{
		PropertyID: propertyID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		Amount:     amount,
		Message:    message,
		Status:     models.OfferStatusPending,
	}
	if err := e.store.Create(offer); err != nil {
		return nil, err
	}

	e.notify(offer, OfferEventCreated)
	return offer, nil
}

// Accept resolves the offer at the currently proposed price. A seller accepts
// a pending offer; a buyer accepts a counter.
func (e *NegotiationEngine) Accept(offerID, actorID uint) (*models.Offer, error) {
	return e.resolve(offerID, actorID, models.OfferStatusAccepted, OfferEventAccepted)
}

// Reject declines the offer. Same actor rules as Accept.
func (e *NegotiationEngine) Reject(offerID, actorID uint) (*models.Offer, error) {
	return e.resolve(offerID, actorID, models.OfferStatusRejected, OfferEventRejected)
}

func (e *NegotiationEngine) resolve(offerID, actorID uint, next, event string) (*models.Offer, error) {
	offer, err := e.store.Get(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	from, err := resolvableFrom(offer, actorID)
	if err != nil {
		return nil, err
	}

	ok, err := e.store.TransitionIf(offerID, from, map[string]interface{}{"status": next})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: somebody else transitioned it first.
		return nil, ErrInvalidTransition
	}

	offer.Status = next
	e.notify(offer, event)
	return offer, nil
}

// resolvableFrom returns the statuses this actor may resolve the offer from.
// The seller answers a pending offer; the buyer answers a counter. Anything
// terminal fails up front so retries of a completed step surface the conflict
// instead of silently succeeding.
func resolvableFrom(offer *models.Offer, actorID uint) ([]string, error) {
	switch actorID {
	case offer.SellerID:
		if offer.Status != models.OfferStatusPending {
			return nil, ErrInvalidTransition
		}
		return []string{models.OfferStatusPending}, nil
	case offer.BuyerID:
		if offer.Status != models.OfferStatusCountered {
			return nil, ErrInvalidTransition
		}
		return []string{models.OfferStatusCountered}, nil
	default:
		return nil, ErrNotParty
	}
}

// Counter sets the seller's alternate price on a pending offer. A counter
// equal to the buyer's amount is not a counter.
func (e *NegotiationEngine) Counter(offerID, actorID uint, counterAmount int64, counterMessage string) (*models.Offer, error) {
	offer, err := e.store.Get(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if actorID != offer.SellerID {
		return nil, ErrNotParty
	}
	if counterAmount <= 0 || counterAmount == offer.Amount {
		return nil, ErrInvalidAmount
	}
	if offer.Status != models.OfferStatusPending {
		return nil, ErrInvalidTransition
	}

	ok, err := e.store.TransitionIf(offerID, []string{models.OfferStatusPending}, map[string]interface{}{
		"status":          models.OfferStatusCountered,
		"counter_amount":  counterAmount,
		"counter_message": counterMessage,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	offer.Status = models.OfferStatusCountered
	offer.CounterAmount = counterAmount
	offer.CounterMessage = counterMessage
	e.notify(offer, OfferEventCountered)
	return offer, nil
}

func (e *NegotiationEngine) Get(offerID uint) (*models.Offer, error) {
	offer, err := e.store.Get(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

func (e *NegotiationEngine) ListForBuyer(buyerID uint, status string) ([]models.Offer, error) {
	return e.store.ListByBuyer(buyerID, status)
}

func (e *NegotiationEngine) ListForSeller(sellerID uint, status string) ([]models.Offer, error) {
	return e.store.ListBySeller(sellerID, status)
}

func (e *NegotiationEngine) notify(offer *models.Offer, event string) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("negotiation: notifier panicked on %s for offer %d: %v", event, offer.ID, r)
		}
	}()
	e.notifier.NotifyOfferEvent(offer, event)
}
