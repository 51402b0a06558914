package errors

// Error code constants returned to clients.
// Format: CATEGORY_SPECIFIC_DETAIL
// Frontends map these codes to localized messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED" // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Cart (CART_) ====================
	CartInvalidQuantity = "CART_INVALID_QUANTITY" // outside [0,100]
	CartQuantityLimit   = "CART_QUANTITY_LIMIT"   // fresh line over the cap
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND" // no record at all
	CatalogUnavailable     = "CATALOG_UNAVAILABLE"       // transport failure

	// ==================== Storage (STORAGE_) ====================
	StorageUnavailable = "STORAGE_UNAVAILABLE" // cart store unreachable

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
