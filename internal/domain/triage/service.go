package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/carebridge/carebridge/internal/domain/doctor"
)

// DoctorDirectory supplies doctors of a specialization ordered by
// descending experience. Satisfied by doctor.Service.
type DoctorDirectory interface {
	DoctorsBySpecialization(ctx context.Context, spec string) ([]*doctor.Doctor, error)
}

// Result is what the patient sees after either triage step. Doctors is
// populated for fallback and winner outcomes; Session and Candidates
// are populated when a severity round is needed.
type Result struct {
	Outcome        Outcome          `json:"outcome"`
	Specialization string           `json:"specialization,omitempty"`
	Score          int              `json:"score"`
	Doctors        []*doctor.Doctor `json:"doctors,omitempty"`
	Session        string           `json:"session,omitempty"`
	Candidates     []string         `json:"candidates,omitempty"`
}

type Service struct {
	engine    *Engine
	sessions  SessionStore
	directory DoctorDirectory
}

func NewService(engine *Engine, sessions SessionStore, directory DoctorDirectory) *Service {
	return &Service{engine: engine, sessions: sessions, directory: directory}
}

func (s *Service) withDoctors(ctx context.Context, r *Result) (*Result, error) {
	docs, err := s.directory.DoctorsBySpecialization(ctx, r.Specialization)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	r.Doctors = docs
	return r, nil
}

// CheckSymptoms runs the first triage step over free-form symptom text.
func (s *Service) CheckSymptoms(ctx context.Context, symptoms string) (*Result, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, fmt.Errorf("symptoms are required")
	}

	rec := s.engine.Recommend(symptoms)
	if rec.Outcome != OutcomeDisambiguate {
		return s.withDoctors(ctx, &Result{
			Outcome:        rec.Outcome,
			Specialization: rec.Specialization,
			Score:          rec.Score,
		})
	}

	token, err := s.sessions.Put(ctx, Session{Symptoms: symptoms, Candidates: rec.Candidates})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Result{
		Outcome:    OutcomeDisambiguate,
		Session:    token,
		Candidates: rec.Candidates,
	}, nil
}

// RateSeverity settles a disambiguation round using the patient's 1-10
// ratings. The session token is consumed whether or not a doctor list
// can be produced.
func (s *Service) RateSeverity(ctx context.Context, token string, ratings map[string]int) (*Result, error) {
	sess, err := s.sessions.Take(ctx, token)
	if err != nil {
		return nil, err
	}

	res := s.engine.Resolve(sess.Symptoms, sess.Candidates, ratings)
	outcome := OutcomeWinner
	if res.Specialization == FallbackSpecialization {
		outcome = OutcomeFallback
	}
	return s.withDoctors(ctx, &Result{
		Outcome:        outcome,
		Specialization: res.Specialization,
		Score:          res.WeightedScore,
	})
}
