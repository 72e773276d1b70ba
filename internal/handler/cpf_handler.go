package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/turmas-api/pkg/cpf"
	"github.com/noah-isme/turmas-api/pkg/response"
)

// CPFResult is the outcome of a CPF check.
type CPFResult struct {
	Input     string `json:"input"`
	Digits    string `json:"digits"`
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
}

// CPFHandler exposes the CPF mask and checksum helpers.
type CPFHandler struct{}

// NewCPFHandler constructs a CPFHandler.
func NewCPFHandler() *CPFHandler {
	return &CPFHandler{}
}

// Format godoc
// @Summary Mask CPF
// @Description Progressive 000.000.000-00 mask of the digits in value
// @Tags CPF
// @Produce json
// @Param value query string true "Raw input"
// @Success 200 {object} response.Envelope
// @Router /cpf/format [get]
func (h *CPFHandler) Format(c *gin.Context) {
	response.OK(c, describeCPF(c.Query("value")))
}

// Validate godoc
// @Summary Validate CPF
// @Tags CPF
// @Produce json
// @Param value query string true "CPF with or without mask"
// @Success 200 {object} response.Envelope
// @Router /cpf/validate [get]
func (h *CPFHandler) Validate(c *gin.Context) {
	response.OK(c, describeCPF(c.Query("value")))
}

func describeCPF(value string) CPFResult {
	return CPFResult{
		Input:     value,
		Digits:    cpf.OnlyDigits(value),
		Formatted: cpf.Format(value),
		Valid:     cpf.Validate(value),
	}
}
