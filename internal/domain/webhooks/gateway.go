package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storesync/internal/core/apperror"
	"storesync/internal/core/branch"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/store"
	"storesync/pkg/logger"
)

const (
	// MaxClockSkew bounds how far a delivery timestamp may drift from the
	// server clock in either direction.
	MaxClockSkew = 180 * time.Second

	// DedupTTL is how long a (store, delivery) reservation is held. Records
	// older than this may be purged.
	DedupTTL = 24 * time.Hour
)

// DeliveryStore reserves delivery ids atomically. Reserve returns true when
// the (store, delivery) pair was absent and is now recorded, false when it was
// already seen. The reservation must be a single atomic insert-if-absent, not
// a read followed by a write.
type DeliveryStore interface {
	Reserve(ctx context.Context, storeID id.ID, deliveryID string, ttl time.Duration) (bool, error)
}

// Dispatcher routes a verified event to its topic handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Archiver persists raw delivery payloads for replay and audit. Archiving is
// best effort and never fails a delivery.
type Archiver interface {
	Archive(ctx context.Context, rec ArchiveRecord) error
}

// Event is a verified, deduplicated delivery handed to the reconciler.
type Event struct {
	Store      *store.Store
	Topic      Topic
	DeliveryID string
	Payload    []byte
	ReceivedAt time.Time
}

// ArchiveRecord is the archived form of one delivery.
type ArchiveRecord struct {
	StoreID    id.ID
	DeliveryID string
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
	Status     string
}

// Request is one raw inbound delivery. Body is the exact bytes received on
// the wire; signature verification depends on them being untouched.
type Request struct {
	StoreID  id.ID
	Platform store.Platform
	Body     []byte
	Header   http.Header
}

// Delivery outcomes. A delivery reaches exactly one of these and never
// transitions afterwards.
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusSkipped   = "skipped"
)

// Result reports the terminal outcome of an accepted delivery.
type Result struct {
	Status string
	Topic  Topic
}

// Gateway runs the per-delivery pipeline: store lookup, branch scoping, topic
// allow-list, signature, freshness, dedup reservation, then dispatch.
type Gateway struct {
	stores     store.Repository
	deliveries DeliveryStore
	dispatcher Dispatcher
	filter     *SyncFilter
	archive    Archiver

	now func() time.Time
}

// NewGateway wires the pipeline. archive may be nil.
func NewGateway(stores store.Repository, deliveries DeliveryStore, dispatcher Dispatcher, filter *SyncFilter, archive Archiver) *Gateway {
	return &Gateway{
		stores:     stores,
		deliveries: deliveries,
		dispatcher: dispatcher,
		filter:     filter,
		archive:    archive,
		now:        time.Now,
	}
}

// Handle processes one delivery to a terminal outcome. Errors returned here
// are already normalized: callers must not expose anything beyond the mapped
// status and generic message.
func (g *Gateway) Handle(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "webhook processing panicked",
				"store_id", req.StoreID,
				"panic", r,
			)
			res = nil
			err = apperror.NewInternal(fmt.Errorf("webhook processing panicked: %v", r))
		}
	}()

	// Store lookup bypasses branch scoping: the request carries no
	// authenticated user, the store itself establishes the branch.
	st, err := g.stores.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, apperror.NewNotFound("store", req.StoreID.String())
	}
	if !st.IsActive || st.Platform != req.Platform {
		return nil, apperror.NewNotFound("store", req.StoreID.String())
	}

	ctx = branch.WithID(ctx, st.BranchID)

	adapter, ok := AdapterFor(st.Platform)
	if !ok {
		return nil, apperror.NewNotFound("store", req.StoreID.String())
	}

	platformTopic := req.Header.Get(adapter.TopicHeader)
	topic, ok := adapter.CanonicalTopic(platformTopic)
	if !ok {
		logger.Warn(ctx, "webhook topic not allowed",
			"store_id", st.ID,
			"topic", platformTopic,
		)
		return nil, apperror.NewValidationField("topic", "event topic is not accepted")
	}

	if !VerifySignature(st.WebhookSecret, req.Body, req.Header.Get(adapter.SignatureHeader), adapter.Encoding) {
		logger.Warn(ctx, "webhook signature rejected",
			"store_id", st.ID,
			"topic", topic,
		)
		return nil, apperror.NewUnauthorized("webhook verification failed")
	}

	if err := g.checkFreshness(ctx, adapter, req.Header, st.ID); err != nil {
		return nil, err
	}

	deliveryID := req.Header.Get(adapter.DeliveryHeader)
	if deliveryID == "" {
		return nil, apperror.NewValidationField("delivery_id", "delivery id header is required")
	}

	fresh, err := g.deliveries.Reserve(ctx, st.ID, deliveryID, DedupTTL)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reserve delivery: %w", err))
	}
	if !fresh {
		logger.Info(ctx, "duplicate webhook delivery ignored",
			"store_id", st.ID,
			"delivery_id", deliveryID,
		)
		return &Result{Status: StatusDuplicate, Topic: topic}, nil
	}

	receivedAt := g.now().UTC()

	allowed, err := g.filter.Allows(st.SyncFilter, topic, string(st.Platform))
	if err != nil {
		logger.Error(ctx, "store sync filter failed",
			"store_id", st.ID,
			"error", err,
		)
		return nil, err
	}
	if !allowed {
		g.archiveDelivery(ctx, st.ID, deliveryID, topic, req.Body, receivedAt, StatusSkipped)
		return &Result{Status: StatusSkipped, Topic: topic}, nil
	}

	err = g.dispatcher.Dispatch(ctx, Event{
		Store:      st,
		Topic:      topic,
		DeliveryID: deliveryID,
		Payload:    req.Body,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		logger.Error(ctx, "webhook dispatch failed",
			"store_id", st.ID,
			"topic", topic,
			"delivery_id", deliveryID,
			"error", err,
		)
		return nil, apperror.NewInternal(err)
	}

	g.archiveDelivery(ctx, st.ID, deliveryID, topic, req.Body, receivedAt, StatusProcessed)
	return &Result{Status: StatusProcessed, Topic: topic}, nil
}

func (g *Gateway) checkFreshness(ctx context.Context, adapter *Adapter, header http.Header, storeID id.ID) error {
	raw := header.Get(adapter.TimestampHeader)
	if raw == "" {
		return apperror.NewUnauthorized("webhook verification failed")
	}
	ts, err := adapter.ParseTimestamp(raw)
	if err != nil {
		logger.Warn(ctx, "webhook timestamp unparseable",
			"store_id", storeID,
			"timestamp", raw,
		)
		return apperror.NewUnauthorized("webhook verification failed")
	}

	skew := g.now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxClockSkew {
		logger.Warn(ctx, "webhook timestamp outside freshness window",
			"store_id", storeID,
			"skew", skew,
		)
		return apperror.NewUnauthorized("webhook verification failed")
	}
	return nil
}

func (g *Gateway) archiveDelivery(ctx context.Context, storeID id.ID, deliveryID string, topic Topic, payload []byte, receivedAt time.Time, status string) {
	if g.archive == nil {
		return
	}
	rec := ArchiveRecord{
		StoreID:    storeID,
		DeliveryID: deliveryID,
		Topic:      string(topic),
		Payload:    payload,
		ReceivedAt: receivedAt,
		Status:     status,
	}
	if err := g.archive.Archive(ctx, rec); err != nil {
		logger.Warn(ctx, "webhook archive failed",
			"store_id", storeID,
			"delivery_id", deliveryID,
			"error", err,
		)
	}
}
