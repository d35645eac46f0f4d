package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/domain"
)

// CELRuleEngine implements domain.RuleEngine using Common Expression
// Language. Expressions see the fact fields as top-level variables:
//
//	newStatus == 'Backordered' && quantity > 10
//
// Compiled programs are cached per expression; rule sets are small and
// stable, so the cache is unbounded.
type CELRuleEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELRuleEngine builds the environment with the fact schema declared.
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("storeId", cel.StringType),
		cel.Variable("orderId", cel.StringType),
		cel.Variable("orderItemId", cel.StringType),
		cel.Variable("previousStatus", cel.StringType),
		cel.Variable("newStatus", cel.StringType),
		cel.Variable("orderStatus", cel.StringType),
		cel.Variable("userId", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("bulk", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &CELRuleEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate compiles (or reuses) the expression and runs it against the fact.
// Non-boolean results are an error; a rule either fires or it does not.
func (e *CELRuleEngine) Evaluate(expression string, fact domain.Fact) (bool, error) {
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"storeId":        fact.StoreID,
		"orderId":        fact.OrderID,
		"orderItemId":    fact.OrderItemID,
		"previousStatus": fact.PreviousStatus,
		"newStatus":      fact.NewStatus,
		"orderStatus":    fact.OrderStatus,
		"userId":         fact.UserID,
		"quantity":       fact.Quantity,
		"bulk":           fact.Bulk,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate rule: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", expression)
	}
	return result, nil
}

func (e *CELRuleEngine) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expression, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}

	e.mu.Lock()
	e.programs[expression] = prg
	e.mu.Unlock()
	return prg, nil
}
