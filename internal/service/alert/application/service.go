package application

import (
	"context"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/session"
	alertdomain "github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// Router delivers a notification to the push gateway node holding the
// target user's connection.
type Router interface {
	Route(ctx context.Context, gatewayNode string, notification *alertdomain.Notification) error
}

// Service evaluates the configured alert rules against every item status
// change and routes fired alerts to connected dashboard users.
type Service struct {
	rules    []alertdomain.Rule
	engine   alertdomain.RuleEngine
	sessions *session.Manager
	router   Router
}

func NewService(rules []alertdomain.Rule, engine alertdomain.RuleEngine, sessions *session.Manager, router Router) *Service {
	return &Service{rules: rules, engine: engine, sessions: sessions, router: router}
}

// HandleItemStatusChanged runs the full rule set against one event. A rule
// that fails to evaluate is logged and skipped; one malformed rule must not
// silence the others.
func (s *Service) HandleItemStatusChanged(ctx context.Context, event *domain.ItemStatusChanged) error {
	fact := alertdomain.Fact{
		StoreID:        event.StoreID,
		OrderID:        event.OrderID,
		OrderItemID:    event.OrderItemID,
		PreviousStatus: string(event.PreviousStatus),
		NewStatus:      string(event.NewStatus),
		OrderStatus:    string(event.OrderStatus),
		UserID:         event.UserID,
		Quantity:       event.Quantity,
		Bulk:           event.Bulk,
	}

	for _, rule := range s.rules {
		fired, err := s.engine.Evaluate(rule.Expression, fact)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("rule", rule.Name).Msg("rule evaluation failed")
			continue
		}
		if !fired {
			continue
		}

		target := rule.NotifyUser
		if target == "" {
			target = event.UserID
		}
		s.deliver(ctx, target, &alertdomain.Notification{
			UserID:  target,
			Rule:    rule.Name,
			Message: rule.Message,
			OrderID: event.OrderID,
			StoreID: event.StoreID,
		})
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, userID string, notification *alertdomain.Notification) {
	node, err := s.sessions.GetUserGateway(ctx, userID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("session lookup failed")
		return
	}
	if node == "" {
		logger.Ctx(ctx).Debug().Str("user_id", userID).Msg("user offline, alert dropped")
		return
	}
	if err := s.router.Route(ctx, node, notification); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("user_id", userID).
			Str("gateway_node", node).
			Msg("failed to route alert")
	}
}
