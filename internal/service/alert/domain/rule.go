package domain

// Rule is one configurable fulfillment alert: a name, a boolean expression
// over an item status change, and the message template sent when it fires.
type Rule struct {
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
	Message    string `yaml:"message" json:"message"`
	// NotifyUser routes the alert to a specific dashboard user instead of
	// the acting user when set.
	NotifyUser string `yaml:"notifyUser,omitempty" json:"notifyUser,omitempty"`
}

// Fact is the flattened view of an ItemStatusChanged event that rule
// expressions evaluate against.
type Fact struct {
	StoreID        string `json:"storeId"`
	OrderID        string `json:"orderId"`
	OrderItemID    string `json:"orderItemId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	OrderStatus    string `json:"orderStatus"`
	UserID         string `json:"userId"`
	Quantity       int    `json:"quantity"`
	Bulk           bool   `json:"bulk"`
}

// RuleEngine evaluates one rule expression against a fact. Implementations
// adapt a concrete expression language to this interface.
type RuleEngine interface {
	Evaluate(expression string, fact Fact) (bool, error)
}

// Notification is an alert ready for delivery to a dashboard user.
type Notification struct {
	UserID  string `json:"userId"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	StoreID string `json:"storeId"`
}
