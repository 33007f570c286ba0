package service

import (
	"context"

	"github.com/sitesell/sitesell/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

// service writes notifications to the structured log. A mail or push
// provider slots in behind the same interface later.
type service struct {
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &service{log: p.Log.Named("notification.service")}
}

func (s *service) Notify(_ context.Context, event domain.Event) {
	s.log.Info("notification dispatched",
		zap.String("kind", string(event.Kind)),
		zap.Int64("recipient_id", int64(event.RecipientID)),
		zap.String("subject", event.Subject),
		zap.Any("data", event.Data),
	)
}
