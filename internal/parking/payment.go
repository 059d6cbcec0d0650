package parking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"parking-garage/internal/logging"
)

var (
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrInvalidCard    = errors.New("invalid card details")
	ErrInvalidAccount = errors.New("invalid account details")
	ErrNothingDue     = errors.New("nothing due")
	ErrUnknownMethod  = errors.New("unknown payment method")
)

type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentAccount PaymentMethod = "account"
)

type Receipt struct {
	ID       string
	Method   PaymentMethod
	Amount   float64
	SettleAt time.Time
}

// PaymentProcessor settles an amount that has already been computed.
// Implementations only record the settlement; they never price anything.
type PaymentProcessor interface {
	Method() PaymentMethod
	ProcessPayment(ctx context.Context, amount float64) (*Receipt, error)
}

// PaymentDetails carries the fields for every method; each constructor
// picks the ones it needs.
type PaymentDetails struct {
	CardNumber string
	Expiry     string
	CVV        string
	AccountID  string
	Credential string
}

var paymentConstructors = map[PaymentMethod]func(PaymentDetails) (PaymentProcessor, error){
	PaymentCard: func(d PaymentDetails) (PaymentProcessor, error) {
		return NewCardPayment(d.CardNumber, d.Expiry, d.CVV)
	},
	PaymentAccount: func(d PaymentDetails) (PaymentProcessor, error) {
		return NewAccountPayment(d.AccountID, d.Credential)
	},
}

func NewPaymentProcessor(method PaymentMethod, details PaymentDetails) (PaymentProcessor, error) {
	ctor, ok := paymentConstructors[PaymentMethod(strings.ToLower(string(method)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return ctor(details)
}

type CardPayment struct {
	cardNumber string
	expiry     string
	cvv        string
}

func NewCardPayment(cardNumber, expiry, cvv string) (*CardPayment, error) {
	if cardNumber == "" || expiry == "" || cvv == "" {
		return nil, ErrInvalidCard
	}
	return &CardPayment{
		cardNumber: cardNumber,
		expiry:     expiry,
		cvv:        cvv,
	}, nil
}

func (p *CardPayment) Method() PaymentMethod {
	return PaymentCard
}

func (p *CardPayment) ProcessPayment(ctx context.Context, amount float64) (*Receipt, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	receipt := newReceipt(PaymentCard, amount)
	logging.Info(ctx, "card payment processed",
		slog.String("receipt_id", receipt.ID),
		slog.Float64("amount", amount),
		slog.String("card_number", mask(p.cardNumber)),
		slog.String("expiry", p.expiry),
	)
	return receipt, nil
}

type AccountPayment struct {
	accountID  string
	credential string
}

func NewAccountPayment(accountID, credential string) (*AccountPayment, error) {
	if accountID == "" || credential == "" {
		return nil, ErrInvalidAccount
	}
	return &AccountPayment{
		accountID:  accountID,
		credential: credential,
	}, nil
}

func (p *AccountPayment) Method() PaymentMethod {
	return PaymentAccount
}

func (p *AccountPayment) ProcessPayment(ctx context.Context, amount float64) (*Receipt, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	receipt := newReceipt(PaymentAccount, amount)
	logging.Info(ctx, "account payment processed",
		slog.String("receipt_id", receipt.ID),
		slog.Float64("amount", amount),
		slog.String("account_id", p.accountID),
	)
	return receipt, nil
}

func newReceipt(method PaymentMethod, amount float64) *Receipt {
	return &Receipt{
		ID:       fmt.Sprintf("rcpt-%s", uuid.New().String()[:8]),
		Method:   method,
		Amount:   amount,
		SettleAt: time.Now(),
	}
}

// mask keeps the last four characters.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
