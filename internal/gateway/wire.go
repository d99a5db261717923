package gateway

import (
	"time"

	"github.com/shopspring/decimal"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
)

// homologation is the only environment value ever put on the wire.
const homologation = "homologacao"

const operationNature = "VENDA AO CONSUMIDOR"

// paymentCodes maps payment methods to the tax authority payment codes.
var paymentCodes = map[entityDomain.PaymentMethod]string{
	entityDomain.PaymentCash:    "01",
	entityDomain.PaymentCredit:  "03",
	entityDomain.PaymentDebit:   "04",
	entityDomain.PaymentVoucher: "10",
	entityDomain.PaymentPix:     "17",
}

// otherPaymentCode is used for methods without a specific code.
const otherPaymentCode = "99"

type wireIssuer struct {
	CNPJ                  string `json:"cnpj"`
	StateRegistration     string `json:"inscricao_estadual"`
	MunicipalRegistration string `json:"inscricao_municipal,omitempty"`
	LegalName             string `json:"razao_social"`
	TradeName             string `json:"nome_fantasia,omitempty"`
	TaxRegime             string `json:"regime_tributario,omitempty"`
	Street                string `json:"logradouro"`
	Number                string `json:"numero"`
	Complement            string `json:"complemento,omitempty"`
	District              string `json:"bairro"`
	City                  string `json:"municipio"`
	CityCode              string `json:"codigo_municipio"`
	State                 string `json:"uf"`
	ZipCode               string `json:"cep"`
}

type wireBuyer struct {
	Name  string `json:"nome,omitempty"`
	TaxID string `json:"cpf_cnpj,omitempty"`
	Email string `json:"email,omitempty"`
}

type wireItem struct {
	Number    int    `json:"numero_item"`
	ProductID string `json:"codigo_produto"`
	Name      string `json:"descricao"`
	Quantity  string `json:"quantidade"`
	UnitPrice string `json:"valor_unitario"`
	Gross     string `json:"valor_bruto"`
	Unit      string `json:"unidade"`
	NCM       string `json:"ncm,omitempty"`
	CFOP      string `json:"cfop"`
}

type wirePayment struct {
	Code   string `json:"forma_pagamento"`
	Amount string `json:"valor_pagamento"`
	Change string `json:"troco,omitempty"`
}

type wireEmitRequest struct {
	Environment string        `json:"ambiente"`
	Reference   string        `json:"referencia"`
	Nature      string        `json:"natureza_operacao"`
	IssuedAt    string        `json:"data_emissao"`
	Issuer      wireIssuer    `json:"emitente"`
	Buyer       *wireBuyer    `json:"destinatario,omitempty"`
	Items       []wireItem    `json:"itens"`
	Payments    []wirePayment `json:"pagamentos"`
	Products    string        `json:"valor_produtos"`
	Discount    string        `json:"valor_desconto"`
	Other       string        `json:"valor_outras_despesas"`
	Total       string        `json:"valor_total"`
}

type wireCancelRequest struct {
	Environment   string `json:"ambiente"`
	Justification string `json:"justificativa"`
}

// wireResponse is shared by emission, status and cancellation responses.
type wireResponse struct {
	Reference    string `json:"referencia"`
	Status       string `json:"status"`
	StatusSefaz  string `json:"status_sefaz"`
	MessageSefaz string `json:"mensagem_sefaz"`
	DocumentKey  string `json:"chave_nfe"`
	Protocol     string `json:"protocolo"`
	Number       string `json:"numero"`
	Series       string `json:"serie"`
	XMLPath      string `json:"caminho_xml_nota_fiscal"`
	PDFPath      string `json:"caminho_danfe"`
	Code         string `json:"codigo"`
	Message      string `json:"mensagem"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toWireEmitRequest(p *EmissionPayload) wireEmitRequest {
	addr := p.Issuer.Address
	req := wireEmitRequest{
		Environment: homologation,
		Reference:   p.Reference,
		Nature:      operationNature,
		IssuedAt:    p.IssuedAt.UTC().Format(time.RFC3339),
		Issuer: wireIssuer{
			CNPJ:                  p.Issuer.TaxID,
			StateRegistration:     p.Issuer.StateRegistration,
			MunicipalRegistration: p.Issuer.MunicipalRegistration,
			LegalName:             p.Issuer.LegalName,
			TradeName:             p.Issuer.TradeName,
			TaxRegime:             p.Issuer.TaxRegime,
			Street:                addr.Street,
			Number:                addr.Number,
			Complement:            addr.Complement,
			District:              addr.District,
			City:                  addr.City,
			CityCode:              addr.CityCode,
			State:                 addr.State,
			ZipCode:               addr.ZipCode,
		},
		Items:    make([]wireItem, 0, len(p.Items)),
		Products: money(p.Subtotal),
		Discount: money(p.Discount),
		Other:    money(p.ServiceFee),
		Total:    money(p.Total),
	}

	if p.Buyer != nil {
		req.Buyer = &wireBuyer{Name: p.Buyer.Name, TaxID: p.Buyer.TaxID, Email: p.Buyer.Email}
	}

	for i, item := range p.Items {
		unit := item.Unit
		if unit == "" {
			unit = "UN"
		}
		cfop := item.CFOP
		if cfop == "" {
			cfop = "5102"
		}
		req.Items = append(req.Items, wireItem{
			Number:    i + 1,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity.StringFixed(4),
			UnitPrice: money(item.UnitPrice),
			Gross:     money(item.Quantity.Mul(item.UnitPrice)),
			Unit:      unit,
			NCM:       item.NCM,
			CFOP:      cfop,
		})
	}

	code, ok := paymentCodes[p.Payment.Method]
	if !ok {
		code = otherPaymentCode
	}
	payment := wirePayment{Code: code, Amount: money(p.Payment.Amount)}
	if p.Payment.Change.IsPositive() {
		payment.Change = money(p.Payment.Change)
	}
	req.Payments = []wirePayment{payment}

	return req
}

// resultStatus maps the provider's document status to ResultStatus.
func resultStatus(status string) ResultStatus {
	switch status {
	case "autorizado":
		return ResultAuthorized
	case "processando_autorizacao", "processando":
		return ResultProcessing
	case "cancelado":
		return ResultCancelled
	default:
		return ResultDenied
	}
}

func (r *wireResponse) toEmissionResult() *EmissionResult {
	status := resultStatus(r.Status)
	result := &EmissionResult{
		Success:     status == ResultAuthorized,
		Status:      status,
		Reference:   r.Reference,
		DocumentKey: r.DocumentKey,
		Protocol:    r.Protocol,
		Number:      r.Number,
		Series:      r.Series,
		XMLURL:      r.XMLPath,
		PDFURL:      r.PDFPath,
	}
	if status == ResultDenied {
		result.ErrorCode, result.ErrorMessage = r.errorDetail()
	}
	return result
}

func (r *wireResponse) toCancelResult() *CancelResult {
	status := resultStatus(r.Status)
	result := &CancelResult{
		Success:  status == ResultCancelled,
		Status:   status,
		Protocol: r.Protocol,
	}
	if !result.Success {
		result.Status = ResultDenied
		result.ErrorCode, result.ErrorMessage = r.errorDetail()
	}
	return result
}

// errorDetail prefers the tax authority's code and message over the provider's.
func (r *wireResponse) errorDetail() (string, string) {
	code, message := r.StatusSefaz, r.MessageSefaz
	if code == "" {
		code = r.Code
	}
	if message == "" {
		message = r.Message
	}
	if message == "" {
		message = r.Status
	}
	return code, message
}
