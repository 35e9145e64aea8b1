package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type challenge struct {
	target    string
	secret    string
	expiresAt time.Time
	attempts  int
}

// MemoryProvider keeps challenges in process memory and hands codes to a
// Notifier. Codes are not stored, only the HOTP secret they derive from. A
// challenge is removed once it is verified or expired, and when it runs out
// of attempts.
type MemoryProvider struct {
	mu          sync.Mutex
	challenges  map[string]*challenge
	ttl         time.Duration
	maxAttempts int
	notifier    Notifier
	logger      *zap.Logger
	nowF        func() time.Time
}

func NewMemoryProvider(ttl time.Duration, maxAttempts int, notifier Notifier, logger *zap.Logger) *MemoryProvider {
	return &MemoryProvider{
		challenges:  make(map[string]*challenge),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		notifier:    notifier,
		logger:      logger.Named("otp_provider"),
		nowF:        time.Now,
	}
}

func (p *MemoryProvider) SendCode(ctx context.Context, target string) <-chan SendResult {
	out := make(chan SendResult, 1)
	go func() {
		defer close(out)
		id, err := p.send(ctx, target)
		out <- SendResult{ChallengeID: id, Err: err}
	}()
	return out
}

func (p *MemoryProvider) send(ctx context.Context, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	code, secret, err := newCode(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", e.ErrProviderUnavailable, err)
	}
	id := uuid.NewString()

	p.mu.Lock()
	p.sweep()
	p.challenges[id] = &challenge{
		target:    target,
		secret:    secret,
		expiresAt: p.nowF().Add(p.ttl),
	}
	p.mu.Unlock()

	if err := p.notifier.Deliver(ctx, target, code); err != nil {
		p.mu.Lock()
		delete(p.challenges, id)
		p.mu.Unlock()
		return "", fmt.Errorf("%w: %v", e.ErrProviderUnavailable, err)
	}
	return id, nil
}

func (p *MemoryProvider) ConfirmCode(ctx context.Context, challengeID, code string) <-chan ConfirmResult {
	out := make(chan ConfirmResult, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- ConfirmResult{Err: err}
			return
		}
		out <- p.confirm(challengeID, code)
	}()
	return out
}

func (p *MemoryProvider) confirm(challengeID, code string) ConfirmResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.challenges[challengeID]
	if !ok || !p.nowF().Before(c.expiresAt) {
		delete(p.challenges, challengeID)
		return ConfirmResult{Err: fmt.Errorf("%w: challenge", e.ErrNotFound)}
	}

	if codeMatches(code, c.secret) {
		delete(p.challenges, challengeID)
		return ConfirmResult{Target: c.target, Verified: true}
	}

	c.attempts++
	if c.attempts >= p.maxAttempts {
		delete(p.challenges, challengeID)
		p.logger.Warn("challenge locked after too many attempts", zap.String("challenge_id", challengeID))
	}
	return ConfirmResult{Target: c.target}
}

// sweep drops expired challenges. Callers hold p.mu.
func (p *MemoryProvider) sweep() {
	now := p.nowF()
	for id, c := range p.challenges {
		if !now.Before(c.expiresAt) {
			delete(p.challenges, id)
		}
	}
}

// LogNotifier writes codes to the log instead of sending an SMS. It is meant
// for development.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("otp_notifier")}
}

func (n *LogNotifier) Deliver(_ context.Context, target, code string) error {
	n.logger.Info("verification code issued", zap.String("target", target), zap.String("code", code))
	return nil
}
