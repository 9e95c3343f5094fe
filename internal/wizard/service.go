package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Gateway is the part of the REST API the wizard calls once all answers are in.
type Gateway interface {
	UpdateAssessment(ctx context.Context, patientID string, assessment catalog.Assessment) error
	GenerateDiet(ctx context.Context, patientID string) (*catalog.GeneratedPlan, error)
}

// Pacer inserts the pause between an answer and the next prompt.
type Pacer interface {
	Pace(ctx context.Context) error
}

type noPace struct{}

func (noPace) Pace(context.Context) error { return nil }

// NoPace skips pacing.
var NoPace Pacer = noPace{}

type delay time.Duration

func (d delay) Pace(ctx context.Context) error {
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay paces every prompt by d. d <= 0 disables pacing.
func Delay(d time.Duration) Pacer {
	if d <= 0 {
		return NoPace
	}
	return delay(d)
}

// Action names what the patient can do next.
const (
	ActionAnswer   = "answer"
	ActionViewPlan = "view_plan"
	ActionRestart  = "restart"
	ActionWait     = "wait"
)

// View is what the dashboard renders for the wizard.
type View struct {
	Token      string            `json:"token"`
	Step       int               `json:"step"`
	State      string            `json:"state"`
	Transcript []Message         `json:"transcript"`
	Options    []string          `json:"options,omitempty"`
	Actions    []string          `json:"actions"`
	Generating bool              `json:"generating"`
	Failed     bool              `json:"failed"`
	Plan       *catalog.DietPlan `json:"plan,omitempty"`
	PlanID     string            `json:"planId,omitempty"`
}

func newView(s *Session) *View {
	v := &View{
		Token:      s.Token,
		Step:       s.State.Step(),
		State:      s.State.Name(),
		Transcript: s.Transcript,
		Generating: s.Generating,
	}
	if v.Transcript == nil {
		v.Transcript = []Message{}
	}
	switch st := s.State.(type) {
	case AwaitingGender:
		v.Options = Genders
	case AwaitingPrakriti:
		v.Options = Constitutions
	case AwaitingVikriti:
		v.Options = Imbalances
		v.Failed = st.Failed
	case PlanReady:
		plan := st.Plan
		v.Plan = &plan
		v.PlanID = st.PlanID
	}
	switch {
	case s.Generating:
		v.Actions = []string{ActionWait}
	case v.Failed:
		v.Actions = []string{ActionRestart}
	case v.Step == 4:
		v.Actions = []string{ActionViewPlan}
	default:
		v.Actions = []string{ActionAnswer}
	}
	return v
}

// Options tunes a Service.
type Options struct {
	Pacer   Pacer
	Metrics *metrics.PortalMetrics
	Now     func() time.Time
	// NewToken issues guard tokens; tests override it.
	NewToken func() string
}

type Service struct {
	store    Store
	gw       Gateway
	logger   *logging.Logger
	pacer    Pacer
	metrics  *metrics.PortalMetrics
	now      func() time.Time
	newToken func() string
}

func NewService(store Store, gw Gateway, logger *logging.Logger, opts Options) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Pacer == nil {
		opts.Pacer = NoPace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewToken == nil {
		opts.NewToken = func() string { return uuid.NewString() }
	}
	return &Service{
		store:    store,
		gw:       gw,
		logger:   logger,
		pacer:    opts.Pacer,
		metrics:  opts.Metrics,
		now:      opts.Now,
		newToken: opts.NewToken,
	}
}

func patientOf(user session.User) (string, error) {
	if user.Role != session.RolePatient {
		return "", apperr.New(apperr.ErrForbidden, "wizard", "Only patients can use the diet assistant.")
	}
	if strings.TrimSpace(user.UID) == "" {
		return "", apperr.New(apperr.ErrUnauthorized, "wizard", "We couldn't identify your account. Please log in again.")
	}
	return user.UID, nil
}

// Open starts a fresh run: new token, greeting, step 0. Any generation still
// in flight for an earlier run is discarded when it finishes.
func (s *Service) Open(ctx context.Context, user session.User) (*View, error) {
	patientID, err := patientOf(user)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		PatientID: patientID,
		Token:     s.newToken(),
		State:     AwaitingAge{},
		UpdatedAt: s.now(),
	}
	sess.say(RoleBot, greeting)
	sess.say(RoleBot, agePrompt)
	if err := s.store.Put(ctx, sess); err != nil {
		s.logger.Error("failed to open wizard", "error", err, "patient_id", patientID)
		return nil, err
	}
	s.logger.Info("wizard opened", "patient_id", patientID)
	return newView(sess), nil
}

// Current returns the patient's latest run.
func (s *Service) Current(ctx context.Context, user session.User) (*View, error) {
	patientID, err := patientOf(user)
	if err != nil {
		return nil, err
	}
	sess, err := s.store.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return newView(sess), nil
}

// Submit records one answer. The fourth valid answer updates the assessment
// and generates the plan before returning.
func (s *Service) Submit(ctx context.Context, user session.User, token, answer string) (*View, error) {
	patientID, err := patientOf(user)
	if err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperr.Validation("wizard", "Type an answer first.")
	}

	// Pace before anything is written so a request abandoned mid-pause
	// leaves the run exactly as it was.
	if err := s.pacer.Pace(ctx); err != nil {
		return nil, err
	}

	var generate *catalog.Assessment
	sess, err := s.store.Update(ctx, patientID, token, func(sess *Session) error {
		if sess.Generating {
			return ErrGenerating
		}
		a, err := advance(sess, answer)
		if err != nil {
			return err
		}
		if a != nil {
			sess.Generating = true
		}
		generate = a
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if generate == nil {
		return newView(sess), nil
	}
	return s.generate(ctx, patientID, token, *generate)
}

// advance applies one answer to the session. It returns the complete
// assessment once the last question is answered.
func advance(sess *Session, answer string) (*catalog.Assessment, error) {
	switch st := sess.State.(type) {
	case AwaitingAge:
		sess.say(RoleUser, answer)
		age, ok := parseAge(answer)
		if !ok {
			sess.say(RoleBot, ageHint)
			return nil, nil
		}
		sess.State = AwaitingGender{Age: age}
		sess.say(RoleBot, genderPrompt)
	case AwaitingGender:
		sess.say(RoleUser, answer)
		gender, ok := parseOption(answer, genderOf)
		if !ok {
			sess.say(RoleBot, genderHint)
			return nil, nil
		}
		sess.State = AwaitingPrakriti{Age: st.Age, Gender: gender}
		sess.say(RoleBot, prakritiPrompt)
	case AwaitingPrakriti:
		sess.say(RoleUser, answer)
		prakriti, ok := parseOption(answer, constitutionOf)
		if !ok {
			sess.say(RoleBot, choiceHint(Constitutions))
			return nil, nil
		}
		sess.State = AwaitingVikriti{Age: st.Age, Gender: st.Gender, Prakriti: prakriti}
		sess.say(RoleBot, vikritiPrompt)
	case AwaitingVikriti:
		if st.Failed {
			return nil, ErrRestartRequired
		}
		sess.say(RoleUser, answer)
		vikriti, ok := parseOption(answer, imbalanceOf)
		if !ok {
			sess.say(RoleBot, choiceHint(Imbalances))
			return nil, nil
		}
		sess.say(RoleBot, generatingNotice)
		return &catalog.Assessment{Age: st.Age, Gender: st.Gender, Prakriti: st.Prakriti, Vikriti: vikriti}, nil
	case PlanReady:
		return nil, ErrFinished
	}
	return nil, nil
}

// generate runs the two remote calls in order and records the outcome on
// the run identified by token. A run reopened meanwhile keeps its own state.
func (s *Service) generate(ctx context.Context, patientID, token string, assessment catalog.Assessment) (*View, error) {
	plan, genErr := s.callGateway(ctx, patientID, assessment)

	// The outcome is written even if the request context was cancelled mid-call.
	writeCtx := context.WithoutCancel(ctx)
	sess, err := s.store.Update(writeCtx, patientID, token, func(sess *Session) error {
		sess.Generating = false
		sess.UpdatedAt = s.now()
		if genErr != nil {
			sess.State = AwaitingVikriti{Age: assessment.Age, Gender: assessment.Gender, Prakriti: assessment.Prakriti, Failed: true}
			sess.say(RoleBot, generationFailed)
			return nil
		}
		sess.State = PlanReady{Assessment: assessment, Plan: plan.Plan, PlanID: plan.PlanID}
		sess.say(RoleBot, summary(plan.Plan))
		sess.say(RoleBot, viewPlanPrompt)
		return nil
	})
	if errors.Is(err, ErrStaleToken) || errors.Is(err, ErrNoSession) {
		s.metrics.ObserveWizardGeneration("discarded")
		s.logger.Warn("wizard reopened during generation, result discarded", "patient_id", patientID)
		return nil, ErrStaleToken
	}
	if err != nil {
		s.logger.Error("failed to record wizard outcome", "error", err, "patient_id", patientID)
		return nil, err
	}
	if genErr != nil {
		s.metrics.ObserveWizardGeneration("failure")
	} else {
		s.metrics.ObserveWizardGeneration("success")
	}
	return newView(sess), nil
}

func (s *Service) callGateway(ctx context.Context, patientID string, assessment catalog.Assessment) (*catalog.GeneratedPlan, error) {
	if err := s.gw.UpdateAssessment(ctx, patientID, assessment); err != nil {
		s.logger.Error("failed to save assessment", "error", err, "patient_id", patientID)
		return nil, err
	}
	plan, err := s.gw.GenerateDiet(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to generate diet plan", "error", err, "patient_id", patientID)
		return nil, err
	}
	if plan == nil {
		return nil, apperr.New(apperr.ErrUpstream, "generate diet", "empty diet plan response")
	}
	return plan, nil
}
