package customer

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LocalsCustomerID is the fiber.Ctx locals key holding the authenticated customer id.
const LocalsCustomerID = "customer_id"

// Handler exposes customer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a customer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// customerID accepts the id either as a JSON number or a numeric string.
type customerID int64

func (id *customerID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errors.New("id must be an integer")
	}
	*id = customerID(n)
	return nil
}

type createRequest struct {
	NIC       string `json:"nic"`
	Name      string `json:"name"`
	PIN       string `json:"pin"`
	DOB       string `json:"dob"`
	MobileNum string `json:"mobilenum"`
}

type loginRequest struct {
	ID  customerID `json:"id"`
	PIN string     `json:"pin"`
}

type changePINRequest struct {
	ID     customerID `json:"id"`
	PIN    string     `json:"pin"`
	NewPIN string     `json:"newpin"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type profileResponse struct {
	ID        int64     `json:"id"`
	NIC       string    `json:"nic"`
	Name      string    `json:"name"`
	DOB       string    `json:"dob"`
	MobileNum string    `json:"mobilenum"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles customer registration.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	id, err := h.service.CreateAccount(c.UserContext(), CreateInput{
		NIC:       req.NIC,
		Name:      req.Name,
		PIN:       req.PIN,
		DOB:       req.DOB,
		MobileNum: req.MobileNum,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Customer created successfully",
		"id":      id,
	})
}

// Login verifies the PIN and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	tok, err := h.service.Authenticate(c.UserContext(), int64(req.ID), req.PIN)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt.UTC(),
	})
}

// ChangePIN rotates the customer's PIN.
func (h *Handler) ChangePIN(c *fiber.Ctx) error {
	var req changePINRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if err := h.service.RotateCredential(c.UserContext(), int64(req.ID), req.PIN, req.NewPIN); err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "PIN changed successfully"})
}

// Me returns the profile of the customer authenticated by the session middleware.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, _ := c.Locals(LocalsCustomerID).(int64)
	if id == 0 {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	cust, err := h.service.Profile(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(profileResponse{
		ID:        cust.ID,
		NIC:       cust.NIC,
		Name:      cust.Name,
		DOB:       cust.DOB,
		MobileNum: cust.MobileNum,
		CreatedAt: cust.CreatedAt,
	})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorResponse{Error: "invalid request body", Code: "bad_request"})
}

// fail writes the error response for a service error. Messages come from
// the taxonomy only; storage causes never reach the client.
func fail(c *fiber.Ctx, err error) error {
	status, message := StatusFor(err)
	return c.Status(status).JSON(errorResponse{Error: message, Code: Code(err)})
}

// StatusFor maps a service error to an HTTP status and public message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest, ErrMissingFields.Error()
	case errors.Is(err, ErrInvalidIdentity):
		return http.StatusBadRequest, ErrInvalidIdentity.Error()
	case errors.Is(err, ErrInvalidPIN):
		return http.StatusBadRequest, ErrInvalidPIN.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrInvalidCredentials.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrDuplicateIdentity):
		return http.StatusConflict, ErrDuplicateIdentity.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
