package driver

// Service bundles the one-shot queries and the write flows behind a single
// surface for the transport layer.
type Service struct {
	*Queries
	*Flows
}

func NewService(queries *Queries, flows *Flows) *Service {
	return &Service{Queries: queries, Flows: flows}
}
