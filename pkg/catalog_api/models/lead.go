package models

// Lead payloads are forwarded verbatim to the automation webhook; the json
// tags below are the field names that automation expects.

// SimulationLead is the financing simulation form.
type SimulationLead struct {
	TipoFormulario string `json:"tipoFormulario"`
	Nome           string `json:"nome" binding:"required"`
	Cpf            string `json:"cpf"`
	Telefone       string `json:"telefone" binding:"required"`
	DataNascimento string `json:"dataNascimento"`
	Veiculo        string `json:"veiculo"`
	Cnh            string `json:"cnh"`
	ValorEntrada   string `json:"valorEntrada"`
}

// InterestLead is the "find my ideal vehicle" form from the homepage hero.
type InterestLead struct {
	Origem         string `json:"origem"`
	TipoFormulario string `json:"tipoFormulario"`
	Nome           string `json:"nome" binding:"required"`
	Telefone       string `json:"telefone" binding:"required"`
	Email          string `json:"email"`
	Interesse      string `json:"interesse"`
}

// ConsignmentLead is the consignment form; the optional attachment is parked
// in object storage and its URL forwarded instead of the binary.
type ConsignmentLead struct {
	Nome     string
	Cpf      string
	Telefone string
	Veiculo  string
	Placa    string
	Ano      string
}

type LeadResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
}
