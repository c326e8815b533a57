package transfers_http

import "github.com/jonno85/tech-task/internal/domain"

type CreditTransferRequest struct {
	Amount           string `json:"amount" validate:"required,amount"`
	Currency         string `json:"currency" validate:"required,eq=EUR"`
	CounterpartyName string `json:"counterparty_name" validate:"required,min=2,max=255"`
	CounterpartyBIC  string `json:"counterparty_bic" validate:"required,min=4,max=11"`
	CounterpartyIBAN string `json:"counterparty_iban" validate:"required,min=11,max=34"`
	Description      string `json:"description" validate:"required,min=4"`
}

type BulkTransferRequest struct {
	OrganizationName string                  `json:"organization_name" validate:"required,min=2,max=255"`
	OrganizationBIC  string                  `json:"organization_bic" validate:"required,min=2,max=11"`
	OrganizationIBAN string                  `json:"organization_iban" validate:"required,min=11,max=34"`
	CreditTransfers  []CreditTransferRequest `json:"credit_transfers" validate:"required,min=1,dive"`
}

func (r BulkTransferRequest) toDomain() domain.BulkTransfer {
	transfers := make([]domain.CreditTransfer, 0, len(r.CreditTransfers))
	for _, ct := range r.CreditTransfers {
		transfers = append(transfers, domain.CreditTransfer{
			Amount:           ct.Amount,
			Currency:         ct.Currency,
			CounterpartyName: ct.CounterpartyName,
			CounterpartyBIC:  ct.CounterpartyBIC,
			CounterpartyIBAN: ct.CounterpartyIBAN,
			Description:      ct.Description,
		})
	}
	return domain.BulkTransfer{
		OrganizationName: r.OrganizationName,
		OrganizationBIC:  r.OrganizationBIC,
		OrganizationIBAN: r.OrganizationIBAN,
		CreditTransfers:  transfers,
	}
}

func bulkTransferFromDomain(b domain.BulkTransfer) BulkTransferRequest {
	transfers := make([]CreditTransferRequest, 0, len(b.CreditTransfers))
	for _, ct := range b.CreditTransfers {
		transfers = append(transfers, CreditTransferRequest{
			Amount:           ct.Amount,
			Currency:         ct.Currency,
			CounterpartyName: ct.CounterpartyName,
			CounterpartyBIC:  ct.CounterpartyBIC,
			CounterpartyIBAN: ct.CounterpartyIBAN,
			Description:      ct.Description,
		})
	}
	return BulkTransferRequest{
		OrganizationName: b.OrganizationName,
		OrganizationBIC:  b.OrganizationBIC,
		OrganizationIBAN: b.OrganizationIBAN,
		CreditTransfers:  transfers,
	}
}
