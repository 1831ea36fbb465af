package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/constants"
	"loadplan-backend/internal/pkg/routekey"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// DemandNotice describes a new forecast supply planners should cover.
type DemandNotice struct {
	OrgID      uuid.UUID
	ForecastID uuid.UUID
	ClientName string
	RouteKey   routekey.Key
	ActorName  string
	TotalQty   int
}

// Notifier tells supply planners about new demand. Implementations must not block the caller.
type Notifier interface {
	NotifySupplyPlannersOfDemand(ctx context.Context, n DemandNotice)
}

// BrevoSendRequest matches the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// BrevoNotifier emails every supply planner of the tenant through Brevo
// (Sendinblue). An empty APIKey disables sending.
type BrevoNotifier struct {
	DB         *gorm.DB
	APIKey     string
	MailFrom   string
	AppBaseURL string
	Endpoint   string
	Client     *http.Client
}

func (b *BrevoNotifier) NotifySupplyPlannersOfDemand(ctx context.Context, n DemandNotice) {
	if b == nil || b.APIKey == "" {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := b.Notify(bg, n); err != nil {
			log.Warn().Err(err).
				Str("org_id", n.OrgID.String()).
				Str("forecast_id", n.ForecastID.String()).
				Msg("supply planner notification failed")
		}
	}()
}

// Notify sends the notice synchronously, one email per supply planner.
func (b *BrevoNotifier) Notify(ctx context.Context, n DemandNotice) error {
	var planners []domain.User
	if err := b.DB.WithContext(ctx).
		Select("user_id, fullname, email").
		Where("org_id = ? AND role = ?", n.OrgID, constants.SupplyPlanner).
		Find(&planners).Error; err != nil {
		return err
	}
	if len(planners) == 0 {
		return nil
	}

	pickup, dropoff, err := routekey.Decode(n.RouteKey)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("New demand: %s → %s for %s", pickup, dropoff, n.ClientName)
	html := EmailLayout(demandContent(n, pickup, dropoff, b.AppBaseURL+"/supply?forecast="+n.ForecastID.String()))

	var firstErr error
	for _, p := range planners {
		if err := b.send(ctx, BrevoContact{Email: p.Email, Name: p.Fullname}, subject, html); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *BrevoNotifier) send(ctx context.Context, to BrevoContact, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: b.from(), Name: "LoadPlan"},
		To:          []BrevoContact{to},
		Subject:     subject,
		HTMLContent: html,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = brevoAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (b *BrevoNotifier) from() string {
	if b.MailFrom != "" {
		return b.MailFrom
	}
	return "noreply@loadplan.app"
}

// Nop discards notices.
type Nop struct{}

func (Nop) NotifySupplyPlannersOfDemand(context.Context, DemandNotice) {}
