package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
	"github.com/codecanvas/codecanvas/internal/store"
)

const saveTimeout = 5 * time.Second

var (
	ErrBusy   = errors.New("project is open in another session")
	ErrClosed = errors.New("session closed")
)

// Store persists canvases. *store.DB satisfies it.
type Store interface {
	LoadCanvas(ctx context.Context, projectID string) (*store.Canvas, error)
	SaveCanvas(ctx context.Context, projectID string, c *store.Canvas) error
}

type Options struct {
	Engine       engine.Options
	SaveDelay    time.Duration
	TickInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SaveDelay <= 0 {
		o.SaveDelay = 2 * time.Second
	}
	if o.TickInterval <= 0 {
		o.TickInterval = 16 * time.Millisecond
	}
	return o
}

// Session owns the engine of one open project. All engine calls happen on
// the session goroutine; clients talk to it through Deliver.
type Session struct {
	ID        string
	ProjectID string

	engine *engine.Engine
	store  Store
	opts   Options
	log    *slog.Logger
	hub    *Hub

	out   Sender
	inbox chan *Message
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	start     time.Time
	clock     func() time.Duration
	gesture   engine.Token
	dirty     bool
	changedAt time.Duration
}

func newSession(id, projectID string, c *store.Canvas, st Store, opts Options, log *slog.Logger) *Session {
	s := &Session{
		ID:        id,
		ProjectID: projectID,
		store:     st,
		opts:      opts,
		log:       log.With("session", id, "project", projectID),
		inbox:     make(chan *Message, 64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		start:     time.Now(),
	}
	s.clock = func() time.Duration { return time.Since(s.start) }

	eopts := opts.Engine
	eopts.Logger = s.log
	s.engine = engine.NewEngine(eopts)
	s.engine.Load(c.Scene, c.Properties)
	s.engine.SetSink(s)
	return s
}

// SceneCommitted marks the canvas for a debounced save.
func (s *Session) SceneCommitted(document.Scene) {
	s.markDirty(s.clock())
}

func (s *Session) markDirty(now time.Duration) {
	s.dirty = true
	s.changedAt = now
}

// Attach connects the session to its client and starts the session
// goroutine. The client first receives a welcome with the stored canvas.
func (s *Session) Attach(out Sender, clientID string) {
	s.out = out
	out.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:   clientID,
		SessionID:  s.ID,
		ProjectID:  s.ProjectID,
		Scene:      s.engine.Scene(),
		Properties: s.engine.Properties(),
	}))
	out.Send(s.stateMessage())

	s.hub.wg.Add(1)
	go func() {
		defer s.hub.wg.Done()
		s.run()
	}()
}

// Deliver queues a client message for the session goroutine.
func (s *Session) Deliver(ctx context.Context, msg *Message) error {
	select {
	case s.inbox <- msg:
		return nil
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session after a final save and releases the project. It
// is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.quit)
		if s.out == nil {
			close(s.done)
		}
		s.hub.release(s)
	})
}

// Done is closed once the session goroutine has saved and exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run() {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer func() {
		ticker.Stop()
		s.engine.Cancel()
		if s.dirty {
			s.save()
		}
		s.out.Close()
		close(s.done)
		s.log.Info("session closed")
	}()

	s.log.Info("session started")
	for {
		select {
		case msg := <-s.inbox:
			for _, reply := range s.handle(msg) {
				s.out.Send(reply)
			}
		case <-ticker.C:
			if reply := s.tick(s.clock()); reply != nil {
				s.out.Send(reply)
			}
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// drain applies messages that were queued before the session closed.
func (s *Session) drain() {
	for {
		select {
		case msg := <-s.inbox:
			for _, reply := range s.handle(msg) {
				s.out.Send(reply)
			}
		default:
			return
		}
	}
}

// tick settles the engine and saves once the canvas has been quiet for
// SaveDelay with no gesture in progress.
func (s *Session) tick(now time.Duration) *Message {
	res := s.engine.Tick(now)
	if res.ViewportSynced {
		s.markDirty(now)
	}
	if s.dirty && now-s.changedAt >= s.opts.SaveDelay && s.engine.ActiveGesture() == engine.GestureNone {
		if err := s.save(); err != nil {
			s.changedAt = now
		}
	}
	if res.HistoryPushed || res.ViewportSynced {
		return s.stateMessage()
	}
	return nil
}

func (s *Session) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	c := &store.Canvas{Scene: s.engine.Scene(), Properties: s.engine.Properties()}
	if err := s.store.SaveCanvas(ctx, s.ProjectID, c); err != nil {
		s.log.Error("save canvas", "error", err)
		return fmt.Errorf("save canvas: %w", err)
	}
	s.dirty = false
	s.log.Debug("canvas saved", "revision", s.engine.Revision())
	return nil
}

func (s *Session) stateMessage() *Message {
	return newMessage(TypeState, StatePayload{
		State:               s.engine.State(),
		Commands:            s.engine.DrawCommands(),
		AffectedConnections: s.engine.AffectedConnections(),
	})
}

// handle applies one client message to the engine and returns the replies.
func (s *Session) handle(msg *Message) []*Message {
	view := s.engine.Viewport()
	err := s.apply(msg)
	if s.engine.Viewport() != view {
		s.markDirty(s.clock())
	}
	if err != nil {
		s.log.Warn("rejected message", "type", msg.Type, "error", err)
		return []*Message{errorMessage(err.Error())}
	}
	if s.engine.ActiveGesture() == engine.GestureNone {
		s.gesture = 0
	}
	reply := s.stateMessage()
	reply.Seq = msg.Seq
	return []*Message{reply}
}

func (s *Session) apply(msg *Message) error {
	e := s.engine
	switch msg.Type {
	case TypePointerDown:
		in, err := decode[engine.PointerInput](msg)
		if err != nil {
			return err
		}
		s.interrupt()
		s.gesture = e.PointerDown(in)

	case TypePointerMove:
		in, err := decode[engine.PointerInput](msg)
		if err != nil {
			return err
		}
		e.Move(s.gesture, in)

	case TypePointerUp:
		in, err := decode[engine.PointerInput](msg)
		if err != nil {
			return err
		}
		e.End(s.gesture, in)

	case TypeWheel:
		in, err := decode[engine.WheelInput](msg)
		if err != nil {
			return err
		}
		e.Wheel(in)

	case TypePinchStart:
		p, err := decode[PinchPayload](msg)
		if err != nil {
			return err
		}
		s.interrupt()
		s.gesture = e.BeginPinch(p.A.point(), p.B.point())

	case TypePinchMove:
		p, err := decode[PinchPayload](msg)
		if err != nil {
			return err
		}
		e.PinchMove(s.gesture, p.A.point(), p.B.point())

	case TypePinchEnd:
		e.End(s.gesture, engine.PointerInput{})

	case TypeLinkStart:
		ep, err := decode[document.Endpoint](msg)
		if err != nil {
			return err
		}
		s.interrupt()
		s.gesture = e.BeginLink(ep)

	case TypeLinkComplete:
		ep, err := decode[document.Endpoint](msg)
		if err != nil {
			return err
		}
		if _, ok := e.CompleteLink(s.gesture, ep); !ok {
			return errors.New("connection rejected")
		}

	case TypeLinkCancel, TypeCancel:
		e.Cancel()

	case TypeKey:
		k, err := decode[engine.KeyInput](msg)
		if err != nil {
			return err
		}
		e.Key(k)

	case TypeUndo:
		e.Undo()
	case TypeRedo:
		e.Redo()
	case TypeSelectClear:
		e.ClearSelection()

	case TypeNodeCreate:
		p, err := decode[NodeCreatePayload](msg)
		if err != nil {
			return err
		}
		if p.Type == "" || (p.Type == document.NodeTypeText && p.X == 0 && p.Y == 0) {
			e.AddTextNode()
			break
		}
		e.AddNode(document.Node{
			Footprint: document.Footprint{X: p.X, Y: p.Y},
			Title:     p.Title,
			Type:      p.Type,
			URI:       p.URI,
			Content:   p.Content,
		})

	case TypeNodeContent:
		p, err := decode[NodeContentPayload](msg)
		if err != nil {
			return err
		}
		if !e.UpdateNodeContent(p.ID, p.Content) {
			return fmt.Errorf("node %q not found", p.ID)
		}

	case TypeNodeUnlink:
		p, err := decode[UnlinkPayload](msg)
		if err != nil {
			return err
		}
		e.Unlink(p.ID)

	case TypeShapeCreate:
		p, err := decode[ShapeCreatePayload](msg)
		if err != nil {
			return err
		}
		if e.AddShape(p.Type) == "" {
			return fmt.Errorf("cannot create shape %q", p.Type)
		}

	case TypeToolSet:
		p, err := decode[ToolPayload](msg)
		if err != nil {
			return err
		}
		e.SetTool(p.Tool)

	case TypeLineTypeSet:
		p, err := decode[LineTypePayload](msg)
		if err != nil {
			return err
		}
		if !p.LineType.Valid() {
			return fmt.Errorf("unknown line type %q", p.LineType)
		}
		e.SetDefaultLineType(p.LineType)

	case TypeStyleSet:
		p, err := decode[StylePayload](msg)
		if err != nil {
			return err
		}
		e.StyleSelected(p.Color, p.Width)

	case TypeZoomStep:
		p, err := decode[ZoomPayload](msg)
		if err != nil {
			return err
		}
		e.ZoomStep(p.Delta)

	case TypeViewReset:
		e.ResetView()

	case TypeScreenSize:
		p, err := decode[ScreenPayload](msg)
		if err != nil {
			return err
		}
		e.SetScreenSize(p.Width, p.Height)

	case TypeHandles:
		p, err := decode[HandlesPayload](msg)
		if err != nil {
			return err
		}
		handles := make(map[string]engine.Point, len(p.Handles))
		for id, v := range p.Handles {
			handles[id] = v.point()
		}
		e.ReportHandles(p.ObjectID, p.Origin.point(), handles)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// interrupt cancels a gesture whose end was never received.
func (s *Session) interrupt() {
	if s.engine.ActiveGesture() != engine.GestureNone {
		s.log.Debug("interrupting gesture", "gesture", s.engine.ActiveGesture().String())
		s.engine.Cancel()
	}
	s.gesture = 0
}
