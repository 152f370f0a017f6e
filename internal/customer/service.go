package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ceylonbank/customer_accounts/internal/credential"
	"github.com/ceylonbank/customer_accounts/internal/metrics"
	"github.com/ceylonbank/customer_accounts/internal/nic"
	"github.com/ceylonbank/customer_accounts/internal/notification"
	"github.com/ceylonbank/customer_accounts/internal/session"
)

const (
	opCreate       = "create"
	opAuthenticate = "authenticate"
	opRotate       = "rotate_pin"
)

// Service manages the customer account lifecycle.
type Service struct {
	repo     Repository
	hasher   *credential.Hasher
	sessions *session.Issuer
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a customer service. notifier, m and logger may be nil.
func NewService(repo Repository, hasher *credential.Hasher, sessions *session.Issuer, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAccount validates input, hashes the PIN and stores a new customer.
// It returns the assigned id.
func (s *Service) CreateAccount(ctx context.Context, in CreateInput) (id int64, err error) {
	defer func() { s.observe(opCreate, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.DOB = strings.TrimSpace(in.DOB)
	in.MobileNum = strings.TrimSpace(in.MobileNum)
	if strings.TrimSpace(in.NIC) == "" || in.Name == "" || in.PIN == "" || in.DOB == "" || in.MobileNum == "" {
		return 0, ErrMissingFields
	}

	// The NIC is validated exactly as sent; padding is not stripped.
	if !nic.ValidateAt(in.NIC, s.now()) {
		return 0, ErrInvalidIdentity
	}
	if err := credential.CheckLength(in.PIN); err != nil {
		return 0, ErrInvalidPIN
	}

	exists, err := s.repo.ExistsByNIC(ctx, in.NIC)
	if err != nil {
		return 0, s.storageError(ctx, opCreate, err)
	}
	if exists {
		return 0, ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(in.PIN)
	if err != nil {
		if errors.Is(err, credential.ErrSecretTooLong) {
			return 0, ErrInvalidPIN
		}
		return 0, s.storageError(ctx, opCreate, err)
	}

	id, err = s.repo.Create(ctx, Customer{
		NIC:       in.NIC,
		Name:      in.Name,
		PINHash:   hash,
		DOB:       in.DOB,
		MobileNum: in.MobileNum,
	})
	if err != nil {
		if errors.Is(err, ErrNICTaken) {
			return 0, ErrDuplicateIdentity
		}
		return 0, s.storageError(ctx, opCreate, err)
	}

	s.logger.InfoContext(ctx, "customer created", slog.Int64("customer_id", id))
	s.notify(ctx, notification.Message{
		Kind:        notification.KindCustomerCreated,
		CustomerID:  id,
		Destination: in.MobileNum,
		Body:        fmt.Sprintf("Welcome %s, your customer id is %d", in.Name, id),
	})
	return id, nil
}

// Authenticate checks the PIN for id and issues a session token. An unknown
// id and a wrong PIN return the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, id int64, pin string) (tok session.Token, err error) {
	defer func() { s.observe(opAuthenticate, err) }()

	if id == 0 || pin == "" {
		return session.Token{}, ErrMissingFields
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return session.Token{}, ErrInvalidCredentials
		}
		return session.Token{}, s.storageError(ctx, opAuthenticate, err)
	}

	if !s.hasher.Verify(pin, c.PINHash) {
		return session.Token{}, ErrInvalidCredentials
	}

	tok, err = s.sessions.Issue(session.Subject{ID: c.ID, NIC: c.NIC, Name: c.Name})
	if err != nil {
		s.logger.ErrorContext(ctx, "issue session token", slog.Int64("customer_id", c.ID), slog.Any("error", err))
		return session.Token{}, fmt.Errorf("%w: issue token", ErrStorage)
	}
	return tok, nil
}

// RotateCredential replaces the PIN of id after verifying oldPIN.
func (s *Service) RotateCredential(ctx context.Context, id int64, oldPIN, newPIN string) (err error) {
	defer func() { s.observe(opRotate, err) }()

	if id == 0 || oldPIN == "" || newPIN == "" {
		return ErrMissingFields
	}
	if err := credential.CheckLength(newPIN); err != nil {
		return ErrInvalidPIN
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return ErrNotFound
		}
		return s.storageError(ctx, opRotate, err)
	}

	if !s.hasher.Verify(oldPIN, c.PINHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPIN)
	if err != nil {
		if errors.Is(err, credential.ErrSecretTooLong) {
			return ErrInvalidPIN
		}
		return s.storageError(ctx, opRotate, err)
	}
	if err := s.repo.UpdatePINHash(ctx, id, hash); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return ErrNotFound
		}
		return s.storageError(ctx, opRotate, err)
	}

	s.logger.InfoContext(ctx, "customer pin changed", slog.Int64("customer_id", id))
	s.notify(ctx, notification.Message{
		Kind:        notification.KindPINChanged,
		CustomerID:  id,
		Destination: c.MobileNum,
		Body:        "Your PIN was changed. Contact the branch if this was not you.",
	})
	return nil
}

// Profile returns the stored customer for id.
func (s *Service) Profile(ctx context.Context, id int64) (Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, s.storageError(ctx, "profile", err)
	}
	return c, nil
}

// storageError logs the cause and hides it behind ErrStorage.
func (s *Service) storageError(ctx context.Context, op string, cause error) error {
	s.logger.ErrorContext(ctx, "customer store failure", slog.String("operation", op), slog.Any("error", cause))
	return fmt.Errorf("%w: %s", ErrStorage, op)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}

func (s *Service) observe(op string, err error) {
	s.metrics.ObserveOperation(op, Code(err))
}
