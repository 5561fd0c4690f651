package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
	"github.com/chandra-gummaluru/beamer-plus/pkg/middleware"
)

var routerTracer = otel.Tracer("broadcast-router")

// Router is the broadcast fabric. Every inbound event becomes one step
// on the event loop: state-bearing events mutate the store first and
// fan out second, so a viewer join racing a broadcast observes either
// the pre- or post-mutation state, never a torn one. Video and 3D
// model events are relayed without touching the store; a late joiner
// does not recover playback position or camera pose.
type Router struct {
	log      *slog.Logger
	loop     *Loop
	registry contracts.Registry
	state    *StateStore
	surveys  *SurveyService
}

func NewRouter(
	log *slog.Logger,
	loop *Loop,
	registry contracts.Registry,
	state *StateStore,
	surveys *SurveyService,
) *Router {
	return &Router{
		log:      log,
		loop:     loop,
		registry: registry,
		state:    state,
		surveys:  surveys,
	}
}

// Run drives the event loop until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	r.log.Info("router - run - event core started")
	r.loop.Run(ctx)
	r.log.Info("router - run - event core stopped")
}

// Dispatch enqueues one inbound event. Callers invoke it synchronously
// from their read loop, which preserves FIFO ordering per connection.
// Broadcast processing is best-effort: a malformed payload for a
// pass-through event is relayed as-is, never bounced to other clients.
func (r *Router) Dispatch(ctx context.Context, src contracts.Client, evt domain.Event) {
	r.loop.Submit(func() {
		r.handle(ctx, src, evt)
	})
}

// Disconnect drops the connection from every room. Rooms are looked up
// by name, not by pointer, so this removal is the entire cleanup.
func (r *Router) Disconnect(ctx context.Context, src contracts.Client) {
	r.loop.Submit(func() {
		r.registry.Remove(src)
		r.log.InfoContext(ctx, "router - disconnect - connection removed", "conn_id", src.ID())
	})
}

func (r *Router) handle(ctx context.Context, src contracts.Client, evt domain.Event) {
	ctx, span := routerTracer.Start(ctx, "Router.handle", trace.WithAttributes(
		attribute.String("event.type", evt.Type),
		attribute.String("conn_id", src.ID()),
	))
	defer span.End()
	middleware.RecordEvent(evt.Type)

	switch evt.Type {
	case domain.TypeJoinPresenter:
		r.join(ctx, src, domain.RoomPresenter)

	case domain.TypeJoinViewer:
		r.join(ctx, src, domain.RoomViewer)
		// Reconciliation: snapshot read and delivery happen inside this
		// same step, so no concurrent mutation can fall between the join
		// and the snapshot.
		r.registry.SendTo(ctx, src, domain.NewEvent(domain.TypeStateSync, r.state.Snapshot()))
		r.log.InfoContext(ctx, "router - handle - state sync delivered", "conn_id", src.ID(), "slide", r.state.CurrentSlide())

	case domain.TypeJoinSurvey:
		var ref domain.SurveyRef
		if err := json.Unmarshal(evt.Data, &ref); err != nil || ref.SurveyID == "" {
			span.RecordError(errors.New("join_survey without survey_id"))
			r.log.WarnContext(ctx, "router - handle - join_survey missing survey_id", "conn_id", src.ID())
			return
		}
		r.join(ctx, src, domain.SurveyRoom(ref.SurveyID))

	case domain.TypePresentationLoaded:
		r.state.SetPresentation(evt.Data)
		r.relay(ctx, src, evt)

	case domain.TypeSlideChange:
		var data domain.SlideChangeData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			span.RecordError(err)
			r.log.WarnContext(ctx, "router - handle - malformed slide_change", "conn_id", src.ID(), "err", err)
			return
		}
		r.state.SetSlide(data.Slide)
		r.relay(ctx, src, evt)

	case domain.TypeAnnotationUpdate:
		var data domain.AnnotationData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			span.RecordError(err)
			r.log.WarnContext(ctx, "router - handle - malformed annotation_update", "conn_id", src.ID(), "err", err)
			return
		}
		r.state.SetAnnotation(data.Slide, data.Annotation)
		r.relay(ctx, src, evt)

	case domain.TypeClearAnnotations:
		var data domain.AnnotationData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			span.RecordError(err)
			r.log.WarnContext(ctx, "router - handle - malformed clear_annotations", "conn_id", src.ID(), "err", err)
			return
		}
		r.state.ClearAnnotation(data.Slide)
		r.relay(ctx, src, evt)

	case domain.TypeSurveyShow:
		r.state.ShowSurvey(evt.Data)
		r.relay(ctx, src, evt)

	case domain.TypeSurveyClose:
		r.state.HideSurvey()
		r.relay(ctx, src, evt)
		var ref domain.SurveyRef
		if len(evt.Data) > 0 {
			_ = json.Unmarshal(evt.Data, &ref)
		}
		if ref.SurveyID != "" {
			if err := r.surveys.closeOnLoop(ctx, ref.SurveyID); err != nil {
				span.RecordError(err)
				r.log.WarnContext(ctx, "router - handle - survey_close for unknown survey", "survey_id", ref.SurveyID)
			}
		}

	case domain.TypeVideoAction, domain.TypeModelInteraction:
		// Pass-through: no store mutation, not part of the snapshot.
		r.relay(ctx, src, evt)

	default:
		r.log.WarnContext(ctx, "router - handle - unknown event dropped", "type", evt.Type, "conn_id", src.ID())
	}
}

func (r *Router) join(ctx context.Context, src contracts.Client, room string) {
	r.registry.Join(src, room)
	r.registry.SendTo(ctx, src, domain.NewEvent(domain.TypeJoined, domain.JoinedData{Room: room}))
	r.log.InfoContext(ctx, "router - join - room joined", "conn_id", src.ID(), "room", room)
}

// relay fans the event out verbatim to the viewer room, excluding the
// source so presenter-authored UI feedback does not echo back.
func (r *Router) relay(ctx context.Context, src contracts.Client, evt domain.Event) {
	r.registry.Broadcast(ctx, domain.RoomViewer, src.ID(), evt)
}
