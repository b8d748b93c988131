package handler

import (
	"node-wallet/internal/handler/response"
	"node-wallet/pkg/deployinfo"

	"github.com/gin-gonic/gin"
)

// ContractBook 已部署合约的地址簿
type ContractBook interface {
	All() map[string]string
	Get(name string) (string, error)
	Network() string
}

var _ ContractBook = (*deployinfo.Book)(nil)

type ContractHandler struct {
	book ContractBook
}

func NewContractHandler(book ContractBook) *ContractHandler {
	return &ContractHandler{book: book}
}

// List GET /api/v1/contracts
func (h *ContractHandler) List(c *gin.Context) {
	response.Success(c, gin.H{
		"network":   h.book.Network(),
		"contracts": h.book.All(),
	})
}

// Get GET /api/v1/contracts/:name
func (h *ContractHandler) Get(c *gin.Context) {
	name := c.Param("name")
	addr, err := h.book.Get(name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"name": name, "address": addr})
}
