package syncer

import (
	"context"

	"github.com/lachiem1/cyclecal/internal/calendar"
)

type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) EnterCalendarView(ctx context.Context, from, to calendar.DateKey) error {
	return s.engine.EnterView(ctx, Window{From: from, To: to})
}

// SetWindow follows calendar navigation; sources already fresh for the new
// window are not refetched.
func (s *Service) SetWindow(from, to calendar.DateKey) error {
	return s.engine.SetWindow(Window{From: from, To: to})
}

func (s *Service) LeaveView() {
	s.engine.LeaveView()
}

func (s *Service) Refresh() error {
	return s.engine.ManualRefresh()
}
