package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/task"
)

// Channel is how the customer pays.
type Channel string

const (
	ChannelMobileMoney   Channel = "mobileMoney"
	ChannelCard          Channel = "card"
	ChannelDigitalWallet Channel = "digitalWallet"
)

// Channels lists the payment channels in display order.
var Channels = []Channel{ChannelMobileMoney, ChannelCard, ChannelDigitalWallet}

// ParseChannel accepts the canonical names and the provider names shown at checkout.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mobilemoney", "mpesa", "m-pesa":
		return ChannelMobileMoney, nil
	case "card":
		return ChannelCard, nil
	case "digitalwallet", "paypal":
		return ChannelDigitalWallet, nil
	default:
		return "", fmt.Errorf("%w: payment channel must be one of mobileMoney, card, digitalWallet", domain.ErrValidation)
	}
}

type Charge struct {
	OrderRef string
	Amount   int64
	Currency string
	Channel  Channel
	Phone    string
}

type Receipt struct {
	Reference string
}

// PaymentProcessor collects a charge. A returned error means nothing was collected.
type PaymentProcessor interface {
	Process(ctx context.Context, charge Charge) (Receipt, error)
}

// MockProcessor approves every charge after a fixed delay.
type MockProcessor struct {
	delay time.Duration
}

func NewMockProcessor(delay time.Duration) *MockProcessor {
	return &MockProcessor{delay: delay}
}

func (p *MockProcessor) Process(ctx context.Context, charge Charge) (Receipt, error) {
	if err := task.Sleep(ctx, p.delay); err != nil {
		return Receipt{}, err
	}
	return Receipt{Reference: "PAY-" + uuid.NewString()}, nil
}
