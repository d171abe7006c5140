package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"

	"github.com/google/uuid"
)

// denyMessage is the vendor's response to any offer it refuses
const denyMessage = "This price is too low. Please make a reasonable offer."

// DefaultVendorResponseDelay models the vendor "thinking" before replying
const DefaultVendorResponseDelay = 1500 * time.Millisecond

// negotiationSession holds the mutable per-session state. All fields are
// guarded by mu. generation increments on restart so that an in-flight vendor
// response can detect it targets a superseded negotiation and drop itself.
type negotiationSession struct {
	mu sync.Mutex

	id       string
	product  models.Product
	quantity int

	stage              models.Stage
	listedPrice        float64
	floorPrice         float64
	currentVendorPrice float64
	transcript         *models.Transcript

	pending      bool
	generation   int
	closed       bool
	responseTmr  *time.Timer
	lastActivity time.Time
}

// vendorResponse is the precomputed outcome of a buyer proposal, applied to
// the session after the response delay.
type vendorResponse struct {
	event    models.NegotiationEvent
	stage    models.Stage
	newPrice float64
	hasPrice bool
}

// NegotiationServiceImpl implements interfaces.NegotiationService
type NegotiationServiceImpl struct {
	catalog interfaces.CatalogService

	mu       sync.RWMutex
	sessions map[string]*negotiationSession

	// responseDelay <= 0 applies vendor responses synchronously
	responseDelay time.Duration
}

// NewNegotiationService creates a new negotiation service
func NewNegotiationService(catalog interfaces.CatalogService, responseDelay time.Duration) *NegotiationServiceImpl {
	return &NegotiationServiceImpl{
		catalog:       catalog,
		sessions:      make(map[string]*negotiationSession),
		responseDelay: responseDelay,
	}
}

// Start opens a negotiation session for a product at its listed price
func (n *NegotiationServiceImpl) Start(ctx context.Context, productID string, quantity int) (*models.SessionView, error) {
	product, err := n.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	if quantity < 1 {
		quantity = 1
	}
	if product.MaxQuantity > 0 && quantity > product.MaxQuantity {
		quantity = product.MaxQuantity
	}

	session := &negotiationSession{
		id:                 uuid.New().String(),
		product:            *product,
		quantity:           quantity,
		stage:              models.StageInitial,
		listedPrice:        product.ListedPrice,
		floorPrice:         product.FloorPrice,
		currentVendorPrice: product.ListedPrice,
		transcript:         models.NewTranscript(),
		lastActivity:       time.Now(),
	}

	n.mu.Lock()
	n.sessions[session.id] = session
	n.mu.Unlock()

	log.Printf("Started negotiation session %s for product %s (listed %.2f, floor %.2f)",
		session.id, productID, session.listedPrice, session.floorPrice)

	return session.view(), nil
}

// GetSession returns a snapshot of a session's current state
func (n *NegotiationServiceImpl) GetSession(ctx context.Context, sessionID string) (*models.SessionView, error) {
	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return nil, ErrSessionNotFound
	}
	return session.viewLocked(), nil
}

// Close discards a session. A vendor response still in flight is dropped.
func (n *NegotiationServiceImpl) Close(ctx context.Context, sessionID string) error {
	n.mu.Lock()
	session, exists := n.sessions[sessionID]
	delete(n.sessions, sessionID)
	n.mu.Unlock()

	if !exists {
		return nil // tolerant: closing twice is not an error
	}

	session.mu.Lock()
	session.closed = true
	session.pending = false
	if session.responseTmr != nil {
		session.responseTmr.Stop()
		session.responseTmr = nil
	}
	session.mu.Unlock()

	return nil
}

// AcceptListed accepts the listed price directly without bargaining.
// Only valid from the initial stage.
func (n *NegotiationServiceImpl) AcceptListed(ctx context.Context, sessionID string) (*models.SessionView, error) {
	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage != models.StageInitial {
		return nil, fmt.Errorf("%w: accept-listed requires stage %q, session %s is %q",
			ErrInvalidTransition, models.StageInitial, sessionID, session.stage)
	}

	session.stage = models.StageAccepted
	session.lastActivity = time.Now()
	return session.viewLocked(), nil
}

// BeginNegotiating moves a session into the bargaining stage
func (n *NegotiationServiceImpl) BeginNegotiating(ctx context.Context, sessionID string) (*models.SessionView, error) {
	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage != models.StageInitial && session.stage != models.StageBrowsingVendors {
		return nil, fmt.Errorf("%w: cannot begin negotiating from stage %q",
			ErrInvalidTransition, session.stage)
	}

	session.stage = models.StageNegotiating
	session.lastActivity = time.Now()
	return session.viewLocked(), nil
}

// Propose submits a buyer offer. The offer is recorded immediately; the
// vendor's accept/counter/deny response is applied after the configured delay,
// strictly ordered after the offer. A second proposal while a response is
// still pending is rejected.
func (n *NegotiationServiceImpl) Propose(ctx context.Context, sessionID string, price float64) (*models.SessionView, error) {
	// Validate before touching any session state
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage != models.StageNegotiating && session.stage != models.StageDenied {
		return nil, fmt.Errorf("%w: propose requires stage %q or %q, session %s is %q",
			ErrInvalidTransition, models.StageNegotiating, models.StageDenied, sessionID, session.stage)
	}
	if session.pending {
		return nil, ErrResponsePending
	}

	// A new offer after a denial re-enters negotiation
	session.stage = models.StageNegotiating
	session.lastActivity = time.Now()

	// Decision inputs come from the history before this offer
	isFirstProposal := !session.transcript.HasKind(models.EventCustomerOffer)
	lastCounter, hasCountered := session.transcript.LastOfKind(models.EventVendorCounter)

	session.transcript.Append(models.NegotiationEvent{
		Kind:  models.EventCustomerOffer,
		Price: price,
	})

	response := decideVendorResponse(price, session.floorPrice, session.currentVendorPrice,
		isFirstProposal, hasCountered, lastCounter.Price)

	session.pending = true
	generation := session.generation

	if n.responseDelay <= 0 {
		n.applyResponseLocked(session, generation, response)
		return session.viewLocked(), nil
	}

	session.responseTmr = time.AfterFunc(n.responseDelay, func() {
		session.mu.Lock()
		defer session.mu.Unlock()
		n.applyResponseLocked(session, generation, response)
	})

	return session.viewLocked(), nil
}

// applyResponseLocked lands a vendor response on the session. The caller must
// hold session.mu. Responses targeting a closed or restarted session are
// dropped without effect.
func (n *NegotiationServiceImpl) applyResponseLocked(session *negotiationSession, generation int, response vendorResponse) {
	if session.closed || session.generation != generation {
		log.Printf("Dropping stale vendor response for session %s", session.id)
		return
	}

	session.transcript.Append(response.event)
	session.stage = response.stage
	if response.hasPrice {
		session.currentVendorPrice = response.newPrice
	}
	session.pending = false
	session.responseTmr = nil
}

// decideVendorResponse implements the vendor's fixed policy: deny below floor,
// accept the exact counter price or a qualifying offer, counter at most once,
// accept anything at or above floor after that single counter.
func decideVendorResponse(price, floorPrice, currentVendorPrice float64,
	isFirstProposal, hasCountered bool, lastCounterPrice float64) vendorResponse {

	threshold := CounterThresholdFor(floorPrice)
	isAcceptingCounter := hasCountered && price == lastCounterPrice

	switch {
	case price < floorPrice:
		return vendorResponse{
			event: models.NegotiationEvent{Kind: models.EventVendorDeny, Message: denyMessage},
			stage: models.StageDenied,
		}

	case isAcceptingCounter || (!isFirstProposal && price >= threshold && hasCountered):
		return vendorResponse{
			event:    models.NegotiationEvent{Kind: models.EventVendorAccept, Price: price},
			stage:    models.StageAccepted,
			newPrice: price,
			hasPrice: true,
		}

	case !hasCountered && price >= floorPrice && price < threshold:
		counterOffer := CounterOffer(threshold, currentVendorPrice)
		return vendorResponse{
			event:    models.NegotiationEvent{Kind: models.EventVendorCounter, Price: counterOffer},
			stage:    models.StageNegotiating,
			newPrice: counterOffer,
			hasPrice: true,
		}

	case hasCountered && price >= floorPrice:
		return vendorResponse{
			event:    models.NegotiationEvent{Kind: models.EventVendorAccept, Price: price},
			stage:    models.StageAccepted,
			newPrice: price,
			hasPrice: true,
		}

	default:
		// Unreachable while the branches above partition price >= floor,
		// but kept so a future pricing change fails closed.
		return vendorResponse{
			event: models.NegotiationEvent{Kind: models.EventVendorDeny, Message: denyMessage},
			stage: models.StageDenied,
		}
	}
}

// BrowseVendors moves a denied session into vendor browsing
func (n *NegotiationServiceImpl) BrowseVendors(ctx context.Context, sessionID string) (*models.SessionView, error) {
	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage != models.StageDenied {
		return nil, fmt.Errorf("%w: browse-vendors requires stage %q, session %s is %q",
			ErrInvalidTransition, models.StageDenied, sessionID, session.stage)
	}

	session.stage = models.StageBrowsingVendors
	session.lastActivity = time.Now()
	return session.viewLocked(), nil
}

// RestartWithVendor restarts the negotiation against a different vendor
// listing: the vendor price resets to the new base price and the transcript
// starts fresh. Any in-flight response to the old negotiation is invalidated.
func (n *NegotiationServiceImpl) RestartWithVendor(ctx context.Context, sessionID string, newListedPrice float64) (*models.SessionView, error) {
	if math.IsNaN(newListedPrice) || math.IsInf(newListedPrice, 0) || newListedPrice <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, newListedPrice)
	}

	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage == models.StageAccepted {
		return nil, fmt.Errorf("%w: cannot restart an accepted negotiation", ErrInvalidTransition)
	}

	session.generation++
	session.pending = false
	if session.responseTmr != nil {
		session.responseTmr.Stop()
		session.responseTmr = nil
	}

	session.listedPrice = newListedPrice
	session.currentVendorPrice = newListedPrice
	session.transcript = models.NewTranscript()
	session.stage = models.StageNegotiating
	session.lastActivity = time.Now()

	log.Printf("Restarted session %s with new base price %.2f", sessionID, newListedPrice)
	return session.viewLocked(), nil
}

// Handoff returns the cart-ready line item for an accepted session. No further
// offers are possible once a session is accepted.
func (n *NegotiationServiceImpl) Handoff(ctx context.Context, sessionID string) (*models.CartLineItem, error) {
	session, err := n.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, ErrSessionNotFound
	}
	if session.stage != models.StageAccepted {
		return nil, fmt.Errorf("%w: handoff requires stage %q, session %s is %q",
			ErrInvalidTransition, models.StageAccepted, sessionID, session.stage)
	}

	product := session.product
	maxQuantity := product.MaxQuantity
	if maxQuantity < 1 {
		maxQuantity = product.InStock
	}
	if maxQuantity < 1 {
		maxQuantity = 1
	}

	item := &models.CartLineItem{
		ID:              product.ID,
		Name:            product.Name,
		Brand:           product.Brand,
		Image:           product.Image,
		VendorName:      product.VendorName,
		OriginalPrice:   product.OriginalPrice,
		NegotiatedPrice: session.currentVendorPrice,
		Quantity:        session.quantity,
		MaxQuantity:     maxQuantity,
		InStock:         product.InStock,
	}

	return item, nil
}

// lookup finds a live session by id
func (n *NegotiationServiceImpl) lookup(sessionID string) (*negotiationSession, error) {
	n.mu.RLock()
	session, exists := n.sessions[sessionID]
	n.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// view snapshots session state for callers
func (s *negotiationSession) view() *models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *negotiationSession) viewLocked() *models.SessionView {
	return &models.SessionView{
		ID:                 s.id,
		ProductID:          s.product.ID,
		ProductName:        s.product.Name,
		VendorName:         s.product.VendorName,
		Quantity:           s.quantity,
		Stage:              s.stage,
		ListedPrice:        s.listedPrice,
		FloorPrice:         s.floorPrice,
		CurrentVendorPrice: s.currentVendorPrice,
		ResponsePending:    s.pending,
		Transcript:         s.transcript.All(),
	}
}

// SessionReaper closes negotiation sessions that have been idle past their
// time-to-live. Sessions live only for the duration of a buyer interaction and
// are never persisted.
type SessionReaper struct {
	service  *NegotiationServiceImpl
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
}

// NewSessionReaper creates a reaper for abandoned sessions
func NewSessionReaper(service *NegotiationServiceImpl, ttl time.Duration) *SessionReaper {
	return &SessionReaper{
		service:  service,
		ttl:      ttl,
		interval: time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background reaping loop
func (sr *SessionReaper) Start(ctx context.Context) {
	log.Println("Starting negotiation session reaper")

	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sr.reapIdleSessions(ctx)
		case <-sr.stopChan:
			log.Println("Stopping negotiation session reaper")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reaper
func (sr *SessionReaper) Stop() {
	close(sr.stopChan)
}

// reapIdleSessions closes every session idle longer than the TTL
func (sr *SessionReaper) reapIdleSessions(ctx context.Context) {
	cutoff := time.Now().Add(-sr.ttl)

	sr.service.mu.RLock()
	var idle []string
	for id, session := range sr.service.sessions {
		session.mu.Lock()
		if session.lastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
		session.mu.Unlock()
	}
	sr.service.mu.RUnlock()

	for _, id := range idle {
		if err := sr.service.Close(ctx, id); err != nil {
			log.Printf("Warning: failed to close idle session %s: %v", id, err)
		}
	}

	if len(idle) > 0 {
		log.Printf("Reaped %d idle negotiation sessions", len(idle))
	}
}
