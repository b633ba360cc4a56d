package core

import (
	"fmt"
	"math"

	"lineagecore/pkg/domain"
)

// IndividualsAliveAt returns the ids of all individuals known to be alive
// timeAgo steps ago, during the given stage. rememberedStage is the stage
// during which the simulation recorded survival and ages; it must match the
// stage used for every remember and write-out call, since the tables do not
// store it.
//
// Birth happens after early under WF, so a WF individual's first early comes
// one step after its first late; under nonWF, birth precedes early and the
// individual is alive for both stages of its birth step. Mortality happens
// between early and late under both models, so the final stage an individual
// lives through is an early. The offsets below encode exactly those rules:
// a birth offset that is non-zero only for WF queried at early, and an age
// offset of 0 when the queried and remembered stages agree (or under WF),
// -1 when ages were recorded in early and the query is for late, and +1 in
// the opposite case, because a nonWF individual lives through one more early
// than late per recorded age.
func (s *Sequence) IndividualsAliveAt(timeAgo float64, stage, rememberedStage domain.Stage) ([]domain.ID, error) {
	done := s.observe("individuals_alive_at")
	ids, err := s.individualsAliveAt(timeAgo, stage, rememberedStage)
	done(err)
	return ids, err
}

func (s *Sequence) individualsAliveAt(timeAgo float64, stage, rememberedStage domain.Stage) ([]domain.ID, error) {
	if !stage.Valid() {
		return nil, configurationf("individuals_alive_at", "unknown stage %q: should be either %q or %q", stage, domain.StageEarly, domain.StageLate)
	}
	if !rememberedStage.Valid() {
		return nil, configurationf("individuals_alive_at", "unknown stage %q: should be either %q or %q", rememberedStage, domain.StageEarly, domain.StageLate)
	}
	s.checkRememberedStage(rememberedStage)

	birthOffset := 0.0
	if stage == domain.StageEarly && s.modelType == domain.ModelWF {
		birthOffset = 1
	}
	ageOffset := 0.0
	if s.modelType != domain.ModelWF && stage != rememberedStage {
		if rememberedStage == domain.StageEarly && stage == domain.StageLate {
			ageOffset = -1
		} else {
			ageOffset = 1
		}
	}

	var alive []domain.ID
	for i, birth := range s.individualTimes {
		// NaN births (individuals without nodes) compare false on both bounds.
		if birth >= timeAgo+birthOffset &&
			birth-float64(s.individualAges[i]) <= timeAgo+birthOffset+ageOffset {
			alive = append(alive, domain.ID(i))
		}
	}
	return alive, nil
}

// checkRememberedStage warns when the caller's remembered-stage assumption
// contradicts what the tables imply. Only WF models allow the heuristic: the
// first generation was born exactly at the founding step, so the gap between
// the current generation and a founder's birth time is zero iff the tables
// were written out during late.
func (s *Sequence) checkRememberedStage(rememberedStage domain.Stage) {
	if s.modelType != domain.ModelWF {
		return
	}
	firstGen := s.FirstGenerationIndividuals()
	if len(firstGen) == 0 {
		return
	}
	dt := float64(s.generation) - s.individualTimes[firstGen[0]]
	if (dt == 0) != (rememberedStage == domain.StageLate) {
		s.warn(fmt.Sprintf("these tables do not look like they were saved during remembered stage %q; "+
			"this may cause inaccuracies in deciding which individuals are alive at what times", rememberedStage))
	}
}

// IndividualAgesAt returns each individual's age at timeAgo steps ago during
// the given stage, or NaN for individuals not alive then. Age is the number
// of time step ends lived through, so it is zero during the birth step.
func (s *Sequence) IndividualAgesAt(timeAgo float64, stage, rememberedStage domain.Stage) ([]float64, error) {
	done := s.observe("individual_ages_at")
	ages, err := s.individualAgesAt(timeAgo, stage, rememberedStage)
	done(err)
	return ages, err
}

func (s *Sequence) individualAgesAt(timeAgo float64, stage, rememberedStage domain.Stage) ([]float64, error) {
	alive, err := s.individualsAliveAt(timeAgo, stage, rememberedStage)
	if err != nil {
		return nil, err
	}
	ages := make([]float64, s.col.Individuals.Len())
	for i := range ages {
		ages[i] = math.NaN()
	}
	for _, id := range alive {
		ages[id] = s.individualTimes[id] - timeAgo
	}
	return ages, nil
}

// FirstGenerationIndividuals returns the ids of founder individuals retained
// for ancestry extension, identified by their flags. Founders are not treated
// as live samples by default.
func (s *Sequence) FirstGenerationIndividuals() []domain.ID {
	var out []domain.ID
	for i, flags := range s.col.Individuals.Flags {
		if domain.IndividualFlags(flags).FirstGeneration() {
			out = append(out, domain.ID(i))
		}
	}
	return out
}
