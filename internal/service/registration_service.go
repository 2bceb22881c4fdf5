package service

//go:generate mockgen -source=registration_service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/observability"
)

const (
	defaultVerifierTimeout = 3 * time.Second
	defaultPublishTimeout  = 5 * time.Second

	welcomeTemplate = "Hi %s, welcome to kapok ..."
)

// Registration outcomes recorded in metrics.
const (
	outcomeRegistered  = "registered"
	outcomeResubmitted = "resubmitted"
	outcomeInvalid     = "invalid"
	outcomeConflict    = "conflict"
	outcomeRejected    = "fraud_rejected"
	outcomeUnavailable = "upstream_unavailable"
)

// CustomerStore is the persistence the orchestrator needs. Insert must reject a duplicate phone
// number atomically with a *domain.ConflictError.
type CustomerStore interface {
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.Customer, error)
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	Insert(ctx context.Context, customer *domain.Customer) error
	UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error
}

// FraudVerifier returns a fresh verdict for a customer.
type FraudVerifier interface {
	Verify(ctx context.Context, customerID string) (domain.Verdict, error)
}

// NotificationPublisher hands an event to the broker.
type NotificationPublisher interface {
	Publish(ctx context.Context, event domain.NotificationEvent, destination, routingKey string) error
}

// RegistrationService runs the register workflow: uniqueness check, persist, verify, notify.
// It holds no mutable state; concurrent calls only meet at the store.
type RegistrationService struct {
	store           CustomerStore
	verifier        FraudVerifier
	publisher       NotificationPublisher
	logger          *zap.Logger
	metrics         *observability.Metrics
	tracer          trace.Tracer
	exchange        string
	routingKey      string
	verifierTimeout time.Duration
	publishTimeout  time.Duration
}

// RegistrationDependencies bundles collaborators for the registration service.
type RegistrationDependencies struct {
	Store           CustomerStore
	Verifier        FraudVerifier
	Publisher       NotificationPublisher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	Exchange        string
	RoutingKey      string
	VerifierTimeout time.Duration
	PublishTimeout  time.Duration
}

// NewRegistrationService constructs the service.
func NewRegistrationService(deps RegistrationDependencies) *RegistrationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	verifierTimeout := deps.VerifierTimeout
	if verifierTimeout <= 0 {
		verifierTimeout = defaultVerifierTimeout
	}
	publishTimeout := deps.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	return &RegistrationService{
		store:           deps.Store,
		verifier:        deps.Verifier,
		publisher:       deps.Publisher,
		logger:          logger,
		metrics:         deps.Metrics,
		tracer:          otel.Tracer("github.com/kapok/customer-service/internal/service"),
		exchange:        deps.Exchange,
		routingKey:      deps.RoutingKey,
		verifierTimeout: verifierTimeout,
		publishTimeout:  publishTimeout,
	}
}

// Register registers a customer. It returns the persisted customer, or exactly one of
// *domain.ValidationError, *domain.ConflictError, *domain.UpstreamUnavailableError or
// *domain.FraudRejectedError.
//
// New records are inserted PENDING and only become ACTIVE after a favorable verdict. A verifier
// outage leaves the record PENDING; resubmitting the same phone number and email re-runs the
// verification against the same ID.
func (s *RegistrationService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.Register")
	defer span.End()

	customer, outcome, err := s.register(ctx, req)
	s.metrics.RecordRegistration(outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(attribute.String("customer.id", customer.ID))
	return customer, nil
}

func (s *RegistrationService) register(ctx context.Context, req domain.RegistrationRequest) (*domain.Customer, string, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, outcomeInvalid, err
	}

	customer, resubmission, err := s.resolveExisting(ctx, req)
	if err != nil {
		return nil, outcomeFor(err), err
	}

	if !resubmission {
		customer = &domain.Customer{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Status:      domain.CustomerStatusPending,
		}
		if err := s.store.Insert(ctx, customer); err != nil {
			var conflict *domain.ConflictError
			if errors.As(err, &conflict) {
				s.logger.Info("phone number claimed concurrently", zap.String("phone_number", req.PhoneNumber))
				return nil, outcomeConflict, conflict
			}
			return nil, outcomeUnavailable, &domain.UpstreamUnavailableError{Collaborator: domain.CollaboratorStore, Err: err}
		}
	}

	verdict, err := s.verify(ctx, customer.ID)
	if err != nil {
		s.logger.Warn("fraud verification unavailable; customer left pending",
			zap.String("customer_id", customer.ID), zap.Error(err))
		return nil, outcomeUnavailable, err
	}

	if verdict.IsFraudster {
		if err := s.store.UpdateStatus(ctx, customer.ID, domain.CustomerStatusRejected); err != nil {
			s.logger.Error("failed to mark customer rejected", zap.String("customer_id", customer.ID), zap.Error(err))
		}
		s.logger.Info("registration rejected by fraud check", zap.String("customer_id", customer.ID))
		return nil, outcomeRejected, &domain.FraudRejectedError{CustomerID: customer.ID}
	}

	if customer.Status != domain.CustomerStatusActive {
		if err := s.store.UpdateStatus(ctx, customer.ID, domain.CustomerStatusActive); err != nil {
			return nil, outcomeUnavailable, &domain.UpstreamUnavailableError{Collaborator: domain.CollaboratorStore, Err: err}
		}
		customer.Status = domain.CustomerStatusActive
	}

	s.notify(ctx, customer)

	if resubmission {
		return customer, outcomeResubmitted, nil
	}
	s.logger.Info("customer registered", zap.String("customer_id", customer.ID))
	return customer, outcomeRegistered, nil
}

// resolveExisting reports whether the phone number already belongs to the same identity.
func (s *RegistrationService) resolveExisting(ctx context.Context, req domain.RegistrationRequest) (*domain.Customer, bool, error) {
	existing, err := s.store.FindByPhoneNumber(ctx, req.PhoneNumber)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, &domain.UpstreamUnavailableError{Collaborator: domain.CollaboratorStore, Err: err}
	case !strings.EqualFold(existing.Email, req.Email):
		return nil, false, &domain.ConflictError{PhoneNumber: req.PhoneNumber}
	default:
		return existing, true, nil
	}
}

func (s *RegistrationService) verify(ctx context.Context, customerID string) (domain.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "FraudVerifier.Verify")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.verifierTimeout)
	defer cancel()

	start := time.Now()
	verdict, err := s.verifier.Verify(ctx, customerID)
	s.metrics.ObserveVerifier(time.Since(start))
	if err != nil {
		span.RecordError(err)
		return domain.Verdict{}, &domain.UpstreamUnavailableError{Collaborator: domain.CollaboratorVerifier, Err: err}
	}
	span.SetAttributes(attribute.Bool("fraud.is_fraudster", verdict.IsFraudster))
	return verdict, nil
}

// notify is fire-and-forget: failures are logged and counted, never returned.
func (s *RegistrationService) notify(ctx context.Context, customer *domain.Customer) {
	if s.publisher == nil {
		return
	}

	ctx, span := s.tracer.Start(ctx, "NotificationPublisher.Publish")
	defer span.End()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	event := WelcomeEvent(customer)
	if err := s.publisher.Publish(ctx, event, s.exchange, s.routingKey); err != nil {
		span.RecordError(err)
		s.metrics.RecordPublishFailure(s.exchange)
		s.logger.Warn("welcome notification not published",
			zap.String("customer_id", customer.ID),
			zap.String("exchange", s.exchange),
			zap.String("routing_key", s.routingKey),
			zap.Error(err))
	}
}

// WelcomeEvent builds the notification sent after a favorable verdict.
func WelcomeEvent(customer *domain.Customer) domain.NotificationEvent {
	return domain.NotificationEvent{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Message:    fmt.Sprintf(welcomeTemplate, customer.Email),
	}
}

func normalizeRequest(req domain.RegistrationRequest) (domain.RegistrationRequest, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	fields := map[string]string{}
	if req.FirstName == "" {
		fields["firstName"] = "required"
	}
	if req.LastName == "" {
		fields["lastName"] = "required"
	}
	if req.Email == "" {
		fields["email"] = "required"
	} else if !strings.Contains(req.Email, "@") {
		fields["email"] = "must be an email address"
	}
	if req.PhoneNumber == "" {
		fields["phoneNumber"] = "required"
	}
	if len(fields) > 0 {
		return req, &domain.ValidationError{Fields: fields}
	}
	return req, nil
}

func outcomeFor(err error) string {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return outcomeConflict
	}
	return outcomeUnavailable
}
