package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/services"
)

type ReceiptHandler struct {
	receipts *services.ReceiptService
	vouchers *services.VoucherService
}

func NewReceiptHandler(receipts *services.ReceiptService, vouchers *services.VoucherService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, vouchers: vouchers}
}

// @Summary Next voucher number of a scope
// @Description For display only. The number is issued when the collection commits.
// @Tags vouchers
// @Produce json
// @Param scope path string true "Scope, e.g. monthly_fees_2025"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/vouchers/{scope}/next [get]
func (h *ReceiptHandler) NextVoucher(c *gin.Context) {
	scope := c.Param("scope")
	next, err := h.vouchers.Peek(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "next_voucher": next})
}

// @Summary Get a collection receipt
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} models.CollectionReceipt
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receipts.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// @Summary Printable receipt
// @Tags receipts
// @Produce application/pdf
// @Param id path string true "Receipt ID"
// @Router /api/v1/receipts/{id}/pdf [get]
func (h *ReceiptHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.receipts.WritePDF(c.Request.Context(), middleware.Actor(c), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
