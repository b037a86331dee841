package metrics

const (
	LabelOperation = "operation"
	LabelCategory  = "category"
	LabelFactory   = "factory"
)

const (
	namespaceRegistry = "passthrough"
)

const (
	subsystemFactory = "factory"
	subsystemJournal = "journal"
)
