package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
)

// memOfferStore is an in-memory OfferStore whose TransitionIf has the same
// atomic conditional-write semantics as the SQL implementation.
type memOfferStore struct {
	mu     sync.Mutex
	nextID uint
	offers map[uint]*models.Offer
}

func newMemOfferStore() *memOfferStore {
	return &memOfferStore{offers: make(map[uint]*models.Offer)}
}

func (s *memOfferStore) Create(offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	offer.ID = s.nextID
	clone := *offer
	s.offers[offer.ID] = &clone
	return nil
}

func (s *memOfferStore) Get(id uint) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	clone := *offer
	return &clone, nil
}

func (s *memOfferStore) HasActiveOffer(propertyID, buyerID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.offers {
		if o.PropertyID == propertyID && o.BuyerID == buyerID && !o.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memOfferStore) ListByBuyer(buyerID uint, status string) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Offer
	for _, o := range s.offers {
		if o.BuyerID == buyerID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memOfferStore) ListBySeller(sellerID uint, status string) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Offer
	for _, o := range s.offers {
		if o.SellerID == sellerID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memOfferStore) TransitionIf(id uint, from []string, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, status := range from {
		if offer.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	for col, val := range updates {
		switch col {
		case "status":
			offer.Status = val.(string)
		case "counter_amount":
			offer.CounterAmount = val.(int64)
		case "counter_message":
			offer.CounterMessage = val.(string)
		}
	}
	return true, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyOfferEvent(offer *models.Offer, event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}

const (
	buyerID  = uint(10)
	sellerID = uint(20)
	propID   = uint(100)
)

func newTestEngine() (*NegotiationEngine, *memOfferStore, *recordingNotifier) {
	store := newMemOfferStore()
	notifier := &recordingNotifier{}
	return NewNegotiationEngine(store, notifier), store, notifier
}

func TestCreateOfferValidation(t *testing.T) {
	engine, _, _ := newTestEngine()

	if _, err := engine.Create(propID, buyerID, sellerID, 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if _, err := engine.Create(propID, buyerID, sellerID, -500, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	if _, err := engine.Create(propID, sellerID, sellerID, 500000, ""); !errors.Is(err, ErrSelfOffer) {
		t.Fatalf("expected ErrSelfOffer, got %v", err)
	}

	offer, err := engine.Create(propID, buyerID, sellerID, 500000, "first home")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if offer.Status != models.OfferStatusPending {
		t.Fatalf("expected pending status, got %s", offer.Status)
	}

	// A second active offer from the same buyer on the same property is rejected.
	if _, err := engine.Create(propID, buyerID, sellerID, 600000, ""); !errors.Is(err, ErrActiveOfferExists) {
		t.Fatalf("expected ErrActiveOfferExists, got %v", err)
	}
}

func TestTerminalStateImmutable(t *testing.T) {
	engine, store, _ := newTestEngine()

	offer, err := engine.Create(propID, buyerID, sellerID, 500000, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := engine.Accept(offer.ID, sellerID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Every further transition by either party must fail and change nothing.
	if _, err := engine.Accept(offer.ID, sellerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on re-accept, got %v", err)
	}
	if _, err := engine.Reject(offer.ID, sellerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on reject after accept, got %v", err)
	}
	if _, err := engine.Counter(offer.ID, sellerID, 550000, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on counter after accept, got %v", err)
	}

	got, _ := store.Get(offer.ID)
	if got.Status != models.OfferStatusAccepted {
		t.Fatalf("offer status changed after failed transitions: %s", got.Status)
	}
}

func TestCounterValidation(t *testing.T) {
	engine, store, _ := newTestEngine()

	offer, _ := engine.Create(propID, buyerID, sellerID, 500000, "")

	if _, err := engine.Counter(offer.ID, sellerID, 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero counter, got %v", err)
	}
	if _, err := engine.Counter(offer.ID, sellerID, -1, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative counter, got %v", err)
	}
	// A counter equal to the buyer's amount is not a counter.
	if _, err := engine.Counter(offer.ID, sellerID, 500000, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for equal counter, got %v", err)
	}

	got, _ := store.Get(offer.ID)
	if got.Status != models.OfferStatusPending {
		t.Fatalf("failed counters must not change state, got %s", got.Status)
	}

	countered, err := engine.Counter(offer.ID, sellerID, 550000, "final price")
	if err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if countered.Status != models.OfferStatusCountered || countered.CounterAmount != 550000 {
		t.Fatalf("unexpected counter result: %+v", countered)
	}

	// No re-counter loop.
	if _, err := engine.Counter(offer.ID, sellerID, 560000, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on re-counter, got %v", err)
	}
}

func TestPartyRules(t *testing.T) {
	engine, _, _ := newTestEngine()

	offer, _ := engine.Create(propID, buyerID, sellerID, 500000, "")

	// A stranger cannot touch the offer.
	if _, err := engine.Accept(offer.ID, 999); !errors.Is(err, ErrNotParty) {
		t.Fatalf("expected ErrNotParty, got %v", err)
	}
	// The buyer has nothing to answer while the offer is pending.
	if _, err := engine.Accept(offer.ID, buyerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for buyer on pending, got %v", err)
	}
	// Only the seller counters.
	if _, err := engine.Counter(offer.ID, buyerID, 550000, ""); !errors.Is(err, ErrNotParty) {
		t.Fatalf("expected ErrNotParty for buyer counter, got %v", err)
	}

	if _, err := engine.Counter(offer.ID, sellerID, 550000, ""); err != nil {
		t.Fatalf("counter failed: %v", err)
	}

	// After a counter it is the buyer's move, not the seller's.
	if _, err := engine.Accept(offer.ID, sellerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for seller on countered, got %v", err)
	}
	if _, err := engine.Accept(offer.ID, buyerID); err != nil {
		t.Fatalf("buyer accept of counter failed: %v", err)
	}
}

func TestConcurrentResolve(t *testing.T) {
	for i := 0; i < 50; i++ {
		engine, store, _ := newTestEngine()
		offer, _ := engine.Create(propID, buyerID, sellerID, 500000, "")

		var wg sync.WaitGroup
		results := make([]error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, results[0] = engine.Accept(offer.ID, sellerID)
		}()
		go func() {
			defer wg.Done()
			_, results[1] = engine.Reject(offer.ID, sellerID)
		}()
		wg.Wait()

		successes := 0
		conflicts := 0
		for _, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidTransition):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if successes != 1 || conflicts != 1 {
			t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
		}

		got, _ := store.Get(offer.ID)
		if !got.Terminal() {
			t.Fatalf("offer not terminal after race: %s", got.Status)
		}
	}
}

func TestNegotiationScenario(t *testing.T) {
	engine, store, notifier := newTestEngine()

	offer, err := engine.Create(propID, buyerID, sellerID, 500000, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if offer.Status != models.OfferStatusPending {
		t.Fatalf("expected pending, got %s", offer.Status)
	}

	countered, err := engine.Counter(offer.ID, sellerID, 550000, "final price")
	if err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if countered.Status != models.OfferStatusCountered || countered.CounterAmount != 550000 || countered.CounterMessage != "final price" {
		t.Fatalf("unexpected countered offer: %+v", countered)
	}

	accepted, err := engine.Accept(offer.ID, buyerID)
	if err != nil {
		t.Fatalf("buyer accept failed: %v", err)
	}
	if accepted.Status != models.OfferStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	if _, err := engine.Reject(offer.ID, buyerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after accept, got %v", err)
	}

	got, _ := store.Get(offer.ID)
	if got.Status != models.OfferStatusAccepted || got.Amount != 500000 {
		t.Fatalf("final offer state wrong: %+v", got)
	}

	// One notification per committed transition, none for the failed reject.
	for event, want := range map[string]int{
		OfferEventCreated:   1,
		OfferEventCountered: 1,
		OfferEventAccepted:  1,
		OfferEventRejected:  0,
	} {
		if got := notifier.count(event); got != want {
			t.Fatalf("event %s fired %d times, want %d", event, got, want)
		}
	}
}
