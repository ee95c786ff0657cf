package voice

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"coursegraph/application/graphcontrol"
	"coursegraph/domain/graph"
)

// Intent names understood by the router
const (
	IntentZoomToNode    = "zoomToNode"
	IntentSearchNode    = "searchNode"
	IntentFocusOnCourse = "focusOnCourse"
	IntentResetView     = "resetView"
	IntentGetCourseInfo = "getCourseInfo"
)

// Intent outcomes recorded in metrics
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeUnknown  = "unknown"
	OutcomePanic    = "panic"
)

// Sender delivers a message back to the voice platform
type Sender interface {
	Send(v any) error
}

// IntentRecorder counts handled intents
type IntentRecorder interface {
	RecordVoiceIntent(intent, outcome string)
}

type intentFunc func(params map[string]any) (result any, outcome string, err error)

// Router dispatches the voice agent's messages for one session
type Router struct {
	store   *graphcontrol.Store
	session *Session
	sender  Sender
	metrics IntentRecorder
	logger  *zap.Logger
	intents map[string]intentFunc
}

// NewRouter creates a router driving store and answering through sender
func NewRouter(store *graphcontrol.Store, session *Session, sender Sender, metrics IntentRecorder, logger *zap.Logger) *Router {
	r := &Router{
		store:   store,
		session: session,
		sender:  sender,
		metrics: metrics,
		logger:  logger,
	}
	r.intents = map[string]intentFunc{
		IntentZoomToNode:    r.zoomToNode,
		IntentSearchNode:    r.searchNode,
		IntentFocusOnCourse: r.focusOnCourse,
		IntentResetView:     r.resetView,
		IntentGetCourseInfo: r.getCourseInfo,
	}
	return r
}

// Handle processes one message from the voice platform. It never fails: every
// problem is logged and the session carries on.
func (r *Router) Handle(msg Message) {
	if msg.Type == TypeFunctionCall {
		r.HandleFunctionCall(msg)
		return
	}

	if msg.Type == TypeError {
		r.logger.Warn("Voice platform error", zap.String("error", msg.Error))
	}
	if r.session.Observe(msg) {
		state := r.session.State()
		r.logger.Debug("Voice state changed", zap.String("state", string(state)))
		r.send(StateChanged{Type: TypeStateChanged, State: state})
	}
	if logged(msg) {
		r.send(TranscriptLog{Type: TypeTranscriptLog, Entries: r.session.Transcript()})
	}
}

// HandleFunctionCall runs one intent and replies with its result. Unknown
// intents are logged and left unanswered.
func (r *Router) HandleFunctionCall(msg Message) {
	name := ""
	if msg.FunctionCall != nil {
		name = msg.FunctionCall.Name
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic while handling function call",
				zap.String("intent", name),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			r.record(name, OutcomePanic)
		}
	}()

	if msg.FunctionCall == nil {
		r.logger.Warn("Function call message without a function call", zap.String("functionCallId", msg.FunctionCallID))
		return
	}

	handle, ok := r.intents[name]
	if !ok {
		r.logger.Warn("Unknown function", zap.String("intent", name))
		r.record("other", OutcomeUnknown)
		return
	}

	result, outcome, err := handle(msg.FunctionCall.Parameters)
	if err != nil {
		r.logger.Warn("Invalid function call",
			zap.String("intent", name),
			zap.Any("parameters", msg.FunctionCall.Parameters),
			zap.Error(err),
		)
		result, outcome = fail(err.Error()), OutcomeInvalid
	}
	r.record(name, outcome)

	r.send(FunctionCallResult{
		Type:           TypeFunctionCallResult,
		FunctionCallID: msg.FunctionCallID,
		Result:         result,
	})
}

func (r *Router) zoomToNode(params map[string]any) (any, string, error) {
	id, err := stringParam(params, "nodeId")
	if err != nil {
		return nil, "", err
	}
	if !r.store.ZoomToNode(id) {
		// the agent still gets an acknowledgment so the call does not stall
		return Ack{Success: true}, OutcomeNotFound, nil
	}
	return Ack{Success: true}, OutcomeOK, nil
}

func (r *Router) searchNode(params map[string]any) (any, string, error) {
	query, err := stringParam(params, "query")
	if err != nil {
		return nil, "", err
	}
	node, ok := r.store.SearchNode(query)
	if !ok {
		return fail("Node not found"), OutcomeNotFound, nil
	}
	r.store.ZoomToNode(node.ID)
	return NodeFound{Success: true, Node: ref(node)}, OutcomeOK, nil
}

func (r *Router) focusOnCourse(params map[string]any) (any, string, error) {
	name, err := stringParam(params, "courseName")
	if err != nil {
		return nil, "", err
	}
	outcome := OutcomeOK
	if _, ok := r.store.FocusOnCourse(name); !ok {
		outcome = OutcomeNotFound
	}
	return Ack{Success: true}, outcome, nil
}

func (r *Router) resetView(map[string]any) (any, string, error) {
	r.store.ResetView()
	return Ack{Success: true}, OutcomeOK, nil
}

func (r *Router) getCourseInfo(params map[string]any) (any, string, error) {
	name, err := stringParam(params, "courseName")
	if err != nil {
		return nil, "", err
	}
	info, ok := r.store.CourseInfo(name)
	if !ok {
		return fail("Course not found"), OutcomeNotFound, nil
	}
	return CourseFound{
		Success:     true,
		Course:      info.Course.Name,
		ModuleCount: len(info.Modules),
		Modules:     info.ModuleNames(),
	}, OutcomeOK, nil
}

func (r *Router) send(v any) {
	if err := r.sender.Send(v); err != nil {
		r.logger.Warn("Failed to send to voice session", zap.Error(err))
	}
}

func (r *Router) record(intent, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordVoiceIntent(intent, outcome)
	}
}

func stringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

func ref(n graph.Node) NodeRef {
	return NodeRef{ID: n.ID, Name: n.Name, Type: string(n.Type)}
}
