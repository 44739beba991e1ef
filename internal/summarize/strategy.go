package summarize

import (
	"fmt"

	"github.com/phrazzld/docsum-api/internal/domain"
)

// Strategy is a declarative instruction template for one task type. It
// states the target fields and behavioral constraints for the model;
// the pipeline itself never branches on task type beyond resolving the
// strategy once per task.
type Strategy struct {
	Name        string
	Instruction string
}

// strategies maps each task type to its instruction template.
var strategies = map[domain.TaskType]Strategy{
	domain.TaskTypeGeneral: {
		Name: "general",
		Instruction: "Summarize the following document excerpt concisely. " +
			"Preserve key facts, figures, names, and conclusions. " +
			"Do not add information that is not present in the excerpt.",
	},
	domain.TaskTypeResume: {
		Name: "resume",
		Instruction: "Extract the candidate profile from the following resume excerpt. " +
			"Target fields: full name, contact details, most recent role, years of experience, " +
			"key skills, education, notable achievements. " +
			"Report each field on its own line; write 'not stated' for fields the excerpt does not cover.",
	},
	domain.TaskTypeInvoice: {
		Name: "invoice",
		Instruction: "Extract the billing details from the following invoice excerpt. " +
			"Target fields: vendor, invoice number, issue date, due date, line items, " +
			"currency, total amount due. " +
			"Report each field on its own line; write 'not stated' for fields the excerpt does not cover.",
	},
}

// StrategyFor resolves the instruction strategy for a task type.
// Returns ErrUnknownStrategy for task types without one.
func StrategyFor(taskType domain.TaskType) (Strategy, error) {
	strategy, ok := strategies[taskType]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, taskType)
	}
	return strategy, nil
}

// BuildPrompt combines the instruction with one chunk of document text.
func (s Strategy) BuildPrompt(chunkText string) string {
	return s.Instruction + "\n\n" + chunkText
}
