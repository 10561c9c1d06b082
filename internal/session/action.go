package session

// Action is a class of request against the simulation service. At most one
// request per class is ever in flight; a second invocation while the class
// flag is set is ignored, which also guarantees per-class completion order.
type Action int

const (
	ActionStatus Action = iota
	ActionStep
	ActionReset
	ActionInject
	ActionHeatwave
	ActionSpatial
	ActionTarget
	ActionLesson
	ActionRemediation
	ActionCompliance

	actionCount
)

func (a Action) String() string {
	switch a {
	case ActionStatus:
		return "status"
	case ActionStep:
		return "step"
	case ActionReset:
		return "reset"
	case ActionInject:
		return "inject"
	case ActionHeatwave:
		return "heatwave"
	case ActionSpatial:
		return "spatial"
	case ActionTarget:
		return "target"
	case ActionLesson:
		return "lesson"
	case ActionRemediation:
		return "remediation"
	case ActionCompliance:
		return "compliance"
	}
	return "unknown"
}
