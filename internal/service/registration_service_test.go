package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/service/mocks"
)

const (
	testExchange   = "internal.exchange"
	testRoutingKey = "internal.notification.routing-key"
)

type RegistrationSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockCustomerStore
	verifier  *mocks.MockFraudVerifier
	publisher *mocks.MockNotificationPublisher
	service   *RegistrationService
	ctx       context.Context
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockCustomerStore(s.ctrl)
	s.verifier = mocks.NewMockFraudVerifier(s.ctrl)
	s.publisher = mocks.NewMockNotificationPublisher(s.ctrl)
	s.service = NewRegistrationService(RegistrationDependencies{
		Store:      s.store,
		Verifier:   s.verifier,
		Publisher:  s.publisher,
		Metrics:    observability.NewMetrics(prometheus.NewRegistry()),
		Exchange:   testExchange,
		RoutingKey: testRoutingKey,
	})
	s.ctx = context.Background()
}

func kapokRequest() domain.RegistrationRequest {
	return domain.RegistrationRequest{
		FirstName:   "Kapok",
		LastName:    "Code",
		Email:       "k@example.com",
		PhoneNumber: "131",
	}
}

// expectInsert assigns id to the inserted customer the way a store would.
func (s *RegistrationSuite) expectInsert(id string) *gomock.Call {
	return s.store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Customer) error {
			c.ID = id
			return nil
		})
}

func (s *RegistrationSuite) TestRegistersNewCustomer() {
	req := kapokRequest()

	gomock.InOrder(
		s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound),
		s.expectInsert("cust-1"),
		s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{CustomerID: "cust-1"}, nil),
		s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusActive).Return(nil),
		s.publisher.EXPECT().Publish(gomock.Any(), domain.NotificationEvent{
			CustomerID: "cust-1",
			Email:      "k@example.com",
			Message:    "Hi k@example.com, welcome to kapok ...",
		}, testExchange, testRoutingKey).Return(nil).Times(1),
	)

	customer, err := s.service.Register(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("cust-1", customer.ID)
	s.Equal("Kapok", customer.FirstName)
	s.Equal("Code", customer.LastName)
	s.Equal(domain.CustomerStatusActive, customer.Status)
}

func (s *RegistrationSuite) TestInsertsWithoutCallerSuppliedID() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Customer) error {
			s.Empty(c.ID)
			s.Equal(domain.CustomerStatusPending, c.Status)
			c.ID = "assigned"
			return nil
		})
	s.verifier.EXPECT().Verify(gomock.Any(), "assigned").Return(domain.Verdict{}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "assigned", domain.CustomerStatusActive).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testExchange, testRoutingKey).Return(nil)

	customer, err := s.service.Register(s.ctx, kapokRequest())
	s.Require().NoError(err)
	s.Equal("assigned", customer.ID)
}

func (s *RegistrationSuite) TestRejectsPhoneNumberHeldByDifferentEmail() {
	existing := &domain.Customer{ID: "a", Email: "other@example.com", PhoneNumber: "131", Status: domain.CustomerStatusActive}
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(existing, nil)

	_, err := s.service.Register(s.ctx, kapokRequest())

	var conflict *domain.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal("131", conflict.PhoneNumber)
	s.Contains(err.Error(), "phone number [131] is taken")
}

func (s *RegistrationSuite) TestResubmissionReusesExistingRecord() {
	existing := &domain.Customer{
		ID:          "cust-1",
		FirstName:   "Kapok",
		LastName:    "Code",
		Email:       "K@Example.com",
		PhoneNumber: "131",
		Status:      domain.CustomerStatusActive,
	}
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(existing, nil)
	s.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{CustomerID: "cust-1"}, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testExchange, testRoutingKey).Return(nil)

	customer, err := s.service.Register(s.ctx, kapokRequest())
	s.Require().NoError(err)
	s.Equal("cust-1", customer.ID)
}

func (s *RegistrationSuite) TestResubmissionConfirmsPendingRecord() {
	existing := &domain.Customer{ID: "cust-1", Email: "k@example.com", PhoneNumber: "131", Status: domain.CustomerStatusPending}
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(existing, nil)
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{CustomerID: "cust-1"}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusActive).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	customer, err := s.service.Register(s.ctx, kapokRequest())
	s.Require().NoError(err)
	s.Equal(domain.CustomerStatusActive, customer.Status)
}

func (s *RegistrationSuite) TestFraudsterIsRejectedWithoutNotification() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{CustomerID: "cust-1", IsFraudster: true}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusRejected).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Register(s.ctx, kapokRequest())

	var rejected *domain.FraudRejectedError
	s.Require().ErrorAs(err, &rejected)
	s.Equal("cust-1", rejected.CustomerID)
}

func (s *RegistrationSuite) TestFraudRejectionSurvivesStatusUpdateFailure() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{IsFraudster: true}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusRejected).Return(errors.New("db down"))

	_, err := s.service.Register(s.ctx, kapokRequest())

	var rejected *domain.FraudRejectedError
	s.Require().ErrorAs(err, &rejected)
}

func (s *RegistrationSuite) TestVerifierOutageSurfacesUpstreamUnavailable() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{}, errors.New("connection refused"))
	s.store.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Register(s.ctx, kapokRequest())

	var upstream *domain.UpstreamUnavailableError
	s.Require().ErrorAs(err, &upstream)
	s.Equal(domain.CollaboratorVerifier, upstream.Collaborator)
}

func (s *RegistrationSuite) TestVerifierCallIsBounded() {
	svc := NewRegistrationService(RegistrationDependencies{
		Store:           s.store,
		Verifier:        s.verifier,
		Publisher:       s.publisher,
		VerifierTimeout: 10 * time.Millisecond,
	})

	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").DoAndReturn(
		func(ctx context.Context, _ string) (domain.Verdict, error) {
			<-ctx.Done()
			return domain.Verdict{}, ctx.Err()
		})

	_, err := svc.Register(s.ctx, kapokRequest())

	var upstream *domain.UpstreamUnavailableError
	s.Require().ErrorAs(err, &upstream)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *RegistrationSuite) TestStoreLookupFailureSurfacesUpstreamUnavailable() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, errors.New("timeout"))

	_, err := s.service.Register(s.ctx, kapokRequest())

	var upstream *domain.UpstreamUnavailableError
	s.Require().ErrorAs(err, &upstream)
	s.Equal(domain.CollaboratorStore, upstream.Collaborator)
}

func (s *RegistrationSuite) TestInsertConflictIsNotOverwritten() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&domain.ConflictError{PhoneNumber: "131"})

	_, err := s.service.Register(s.ctx, kapokRequest())

	var conflict *domain.ConflictError
	s.Require().ErrorAs(err, &conflict)
}

func (s *RegistrationSuite) TestConfirmFailureSkipsNotification() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusActive).Return(errors.New("db down"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.Register(s.ctx, kapokRequest())

	var upstream *domain.UpstreamUnavailableError
	s.Require().ErrorAs(err, &upstream)
	s.Equal(domain.CollaboratorStore, upstream.Collaborator)
}

func (s *RegistrationSuite) TestPublishFailureDoesNotFailRegistration() {
	s.store.EXPECT().FindByPhoneNumber(gomock.Any(), "131").Return(nil, domain.ErrNotFound)
	s.expectInsert("cust-1")
	s.verifier.EXPECT().Verify(gomock.Any(), "cust-1").Return(domain.Verdict{}, nil)
	s.store.EXPECT().UpdateStatus(gomock.Any(), "cust-1", domain.CustomerStatusActive).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	customer, err := s.service.Register(s.ctx, kapokRequest())
	s.Require().NoError(err)
	s.Equal("cust-1", customer.ID)
}

func (s *RegistrationSuite) TestInvalidRequestTouchesNoCollaborator() {
	_, err := s.service.Register(s.ctx, domain.RegistrationRequest{FirstName: " ", Email: "nope", PhoneNumber: "1"})

	var invalid *domain.ValidationError
	s.Require().ErrorAs(err, &invalid)
	s.Equal("required", invalid.Fields["firstName"])
	s.Equal("required", invalid.Fields["lastName"])
	s.Equal("must be an email address", invalid.Fields["email"])
	s.NotContains(invalid.Fields, "phoneNumber")
}
