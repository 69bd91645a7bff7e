package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oscarts/backery2-app-sub005/internal/application/production/services"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub005/test/helpers"
)

func TestStepService_FirstStartMovesRunInProgress(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix", "Bake")

	h.clock.Advance(5 * time.Minute)
	result, err := h.steps.StartStep(h.ctx, run.ID(), run.Steps()[0].ID())
	require.NoError(t, err)

	assert.Equal(t, production.StepStatusInProgress, result.Step.Status())
	assert.Equal(t, production.RunStatusInProgress, result.Run.Status())
	require.NotNil(t, result.Run.StartedAt())
	assert.Equal(t, helpers.FixtureTime.Add(5*time.Minute), *result.Run.StartedAt())

	loaded := h.fx.LoadRun(run.ID())
	assert.Equal(t, production.StepStatusInProgress, loaded.Steps()[0].Status())
	assert.Equal(t, production.RunStatusInProgress, loaded.Status())
}

func TestStepService_Transitions(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix", "Proof", "Bake")
	mix, proof, bake := run.Steps()[0], run.Steps()[1], run.Steps()[2]

	_, err := h.steps.StartStep(h.ctx, run.ID(), mix.ID())
	require.NoError(t, err)

	result, err := h.steps.FailStep(h.ctx, run.ID(), mix.ID(), "dough too wet")
	require.NoError(t, err)
	assert.Equal(t, production.StepStatusFailed, result.Step.Status())
	assert.Equal(t, "dough too wet", result.Step.Notes())

	_, err = h.steps.SkipStep(h.ctx, run.ID(), proof.ID(), "fast recipe")
	require.NoError(t, err)

	// Only pending steps can be skipped
	_, err = h.steps.SkipStep(h.ctx, run.ID(), proof.ID(), "again")
	var stepErr *production.InvalidStepTransitionError
	assert.ErrorAs(t, err, &stepErr)

	_, err = h.steps.CompleteStep(h.ctx, run.ID(), bake.ID(), "golden")
	require.NoError(t, err)

	// A failed step blocks completion
	_, err = h.completion.CompleteProductionRun(h.ctx, run.ID())
	var incomplete *production.IncompleteStepsError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "Mix", incomplete.BlockingSteps[0].Name)
}

func TestStepService_RejectsStepsOfFrozenRuns(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix")

	_, err := h.completion.TransitionStatus(h.ctx, run.ID(), production.RunStatusOnHold, services.TransitionOptions{})
	require.NoError(t, err)

	_, err = h.steps.StartStep(h.ctx, run.ID(), run.Steps()[0].ID())
	var invalid *production.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, production.StepStatusPending, h.fx.LoadRun(run.ID()).Steps()[0].Status())
}

func TestStepService_UnknownStep(t *testing.T) {
	h := newHarness(t)
	flour := h.fx.RawMaterial("Flour", "g", "1000", "0.0025")
	bread := h.fx.Recipe("Bread", "10", "loaf", helpers.Line{Item: flour, Quantity: "50"})
	run := h.fx.Run(bread, "10", "Mix")

	_, err := h.steps.CompleteStep(h.ctx, run.ID(), "no-such-step", "")
	assert.Error(t, err)
}
