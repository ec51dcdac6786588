package handlers

import (
	"errors"
	"fmt"
	"log"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const validationFailedMessage = "Validation failed: Name is required and price/stock must be positive."

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes with the Fiber router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return invalidID(c)
	}

	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return notFound(c)
		}
		log.Printf("Error getting product by ID %d: %v", id, err)
		return internalError(c, "Could not retrieve product", err)
	}
	return c.Status(fiber.StatusOK).JSON(product)
}

// HandleCreateProduct validates the body, rejects duplicate names and inserts the product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, badRequest := h.parseInput(c)
	if badRequest != nil {
		return c.Status(fiber.StatusBadRequest).JSON(badRequest)
	}

	product := input.ToProduct(0)
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		if errors.Is(err, services.ErrDuplicateProductName) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": fmt.Sprintf("Product name '%s' already exists.", product.Name),
			})
		}
		log.Printf("Error creating product %q: %v", product.Name, err)
		return internalError(c, "Could not create product", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Product created successfully",
		"PRODUCTID": product.ID,
	})
}

// HandleUpdateProduct overwrites an existing product. The outcome does not
// depend on whether the ID matched a row.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return invalidID(c)
	}

	input, badRequest := h.parseInput(c)
	if badRequest != nil {
		return c.Status(fiber.StatusBadRequest).JSON(badRequest)
	}

	if err := h.service.UpdateProduct(c.UserContext(), input.ToProduct(id)); err != nil {
		log.Printf("Error updating product %d: %v", id, err)
		return internalError(c, "Could not update product", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Product updated successfully",
	})
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return invalidID(c)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return notFound(c)
		}
		log.Printf("Error deleting product %d: %v", id, err)
		return internalError(c, "Could not delete product", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// parseInput decodes and validates a product body. A non-nil map is the
// body of the 400 response to send instead.
func (h *ProductHandler) parseInput(c *fiber.Ctx) (*models.ProductInput, fiber.Map) {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return nil, fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		}
	}

	if err := h.validate.Struct(input); err != nil {
		return nil, fiber.Map{
			"message": validationFailedMessage,
			"errors":  fieldErrors(err),
		}
	}
	return &input, nil
}

// productID reads the :id path parameter; only positive integers are accepted.
func productID(c *fiber.Ctx) (int, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": fmt.Sprintf("Invalid product ID '%s'", c.Params("id")),
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Product not found",
	})
}

// internalError reports a storage failure with the raw error text.
func internalError(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
