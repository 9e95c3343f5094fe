// Package wizard runs the diet plan assistant: four questions (age, gender,
// prakriti, vikriti) followed by an assessment update and plan generation.
package wizard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
)

// State is the sealed wizard state. Only the types of this package implement it.
type State interface {
	// Step is 0..3 while collecting answers and 4 once the plan is ready.
	Step() int
	Name() string
	sealed()
}

type AwaitingAge struct{}

type AwaitingGender struct {
	Age int
}

type AwaitingPrakriti struct {
	Age    int
	Gender string
}

// AwaitingVikriti is the last question. Failed is set after generation
// failed; the wizard then has to be reopened.
type AwaitingVikriti struct {
	Age      int
	Gender   string
	Prakriti string
	Failed   bool
}

type PlanReady struct {
	Assessment catalog.Assessment
	Plan       catalog.DietPlan
	PlanID     string
}

func (AwaitingAge) Step() int      { return 0 }
func (AwaitingGender) Step() int   { return 1 }
func (AwaitingPrakriti) Step() int { return 2 }
func (AwaitingVikriti) Step() int  { return 3 }
func (PlanReady) Step() int        { return 4 }

func (AwaitingAge) Name() string      { return "awaiting_age" }
func (AwaitingGender) Name() string   { return "awaiting_gender" }
func (AwaitingPrakriti) Name() string { return "awaiting_prakriti" }
func (AwaitingVikriti) Name() string  { return "awaiting_vikriti" }
func (PlanReady) Name() string        { return "plan_ready" }

func (AwaitingAge) sealed()      {}
func (AwaitingGender) sealed()   {}
func (AwaitingPrakriti) sealed() {}
func (AwaitingVikriti) sealed()  {}
func (PlanReady) sealed()        {}

// Role is the author of a transcript message.
type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one patient's wizard run. Token changes on every Open and
// guards all later writes.
type Session struct {
	PatientID  string
	Token      string
	State      State
	Transcript []Message
	Generating bool
	UpdatedAt  time.Time
}

func (s *Session) say(role Role, content string) {
	s.Transcript = append(s.Transcript, Message{Role: role, Content: content})
}

// stateRecord is the flattened wire form of a State.
type stateRecord struct {
	Name       string              `json:"name"`
	Age        int                 `json:"age,omitempty"`
	Gender     string              `json:"gender,omitempty"`
	Prakriti   string              `json:"prakriti,omitempty"`
	Failed     bool                `json:"failed,omitempty"`
	Assessment *catalog.Assessment `json:"assessment,omitempty"`
	Plan       *catalog.DietPlan   `json:"plan,omitempty"`
	PlanID     string              `json:"planId,omitempty"`
}

type sessionRecord struct {
	PatientID  string      `json:"patientId"`
	Token      string      `json:"token"`
	State      stateRecord `json:"state"`
	Transcript []Message   `json:"transcript"`
	Generating bool        `json:"generating,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	rec := sessionRecord{
		PatientID:  s.PatientID,
		Token:      s.Token,
		Transcript: s.Transcript,
		Generating: s.Generating,
		UpdatedAt:  s.UpdatedAt,
	}
	switch st := s.State.(type) {
	case nil, AwaitingAge:
		rec.State = stateRecord{Name: AwaitingAge{}.Name()}
	case AwaitingGender:
		rec.State = stateRecord{Name: st.Name(), Age: st.Age}
	case AwaitingPrakriti:
		rec.State = stateRecord{Name: st.Name(), Age: st.Age, Gender: st.Gender}
	case AwaitingVikriti:
		rec.State = stateRecord{Name: st.Name(), Age: st.Age, Gender: st.Gender, Prakriti: st.Prakriti, Failed: st.Failed}
	case PlanReady:
		assessment, plan := st.Assessment, st.Plan
		rec.State = stateRecord{Name: st.Name(), Assessment: &assessment, Plan: &plan, PlanID: st.PlanID}
	default:
		return nil, fmt.Errorf("wizard: unknown state %T", s.State)
	}
	return json.Marshal(rec)
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("wizard: decode session: %w", err)
	}
	var state State
	switch rec.State.Name {
	case "", AwaitingAge{}.Name():
		state = AwaitingAge{}
	case AwaitingGender{}.Name():
		state = AwaitingGender{Age: rec.State.Age}
	case AwaitingPrakriti{}.Name():
		state = AwaitingPrakriti{Age: rec.State.Age, Gender: rec.State.Gender}
	case AwaitingVikriti{}.Name():
		state = AwaitingVikriti{Age: rec.State.Age, Gender: rec.State.Gender, Prakriti: rec.State.Prakriti, Failed: rec.State.Failed}
	case PlanReady{}.Name():
		ready := PlanReady{PlanID: rec.State.PlanID}
		if rec.State.Assessment != nil {
			ready.Assessment = *rec.State.Assessment
		}
		if rec.State.Plan != nil {
			ready.Plan = *rec.State.Plan
		}
		state = ready
	default:
		return fmt.Errorf("wizard: unknown state %q", rec.State.Name)
	}
	*s = Session{
		PatientID:  rec.PatientID,
		Token:      rec.Token,
		State:      state,
		Transcript: rec.Transcript,
		Generating: rec.Generating,
		UpdatedAt:  rec.UpdatedAt,
	}
	return nil
}

// clone deep copies s through its wire form so stores never share slices with callers.
func clone(s *Session) (*Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
