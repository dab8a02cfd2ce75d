package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/modules/driver"
)

// UserHandler exposes rider account creation and lookup. No auth: accounts
// here are plain rows that bookings and driver profiles reference.
type UserHandler struct {
	drivers *driver.Service
}

func NewUserHandler(svc *driver.Service) *UserHandler {
	return &UserHandler{drivers: svc}
}

type createUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.drivers.CreateUser(c.Request.Context(), driver.CreateUserCommand{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.drivers.GetUser(c.Request.Context(), id)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
