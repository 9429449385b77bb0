package service

import (
	"context"

	"AvailabilityBot/engine"
	"AvailabilityBot/model"
)

// Report bundles an event's ranked scores with their matrix projection.
type Report struct {
	EventID string        `json:"eventId"`
	Name    string        `json:"name"`
	Mode    model.Mode    `json:"mode"`
	Result  engine.Result `json:"result"`
	Matrix  engine.Matrix `json:"matrix"`
}

// Renderer turns a report into an image, a message or any other output.
type Renderer interface {
	Render(ctx context.Context, ev *model.Event, report *Report) error
}

// Report aggregates and projects the current snapshot of an event.
func (s *Service) Report(ctx context.Context, eventID string) (*model.Event, *Report, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	res := engine.Aggregate(ev)
	return ev, &Report{
		EventID: ev.ID,
		Name:    ev.Name,
		Mode:    ev.Mode,
		Result:  res,
		Matrix:  engine.Project(ev, res),
	}, nil
}

// Export builds the report and hands it to r.
func (s *Service) Export(ctx context.Context, eventID string, r Renderer) error {
	ev, report, err := s.Report(ctx, eventID)
	if err != nil {
		return err
	}
	return r.Render(ctx, ev, report)
}
