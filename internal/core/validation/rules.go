package validation

var Register = Set{
	{Field: "email", Check: Email, Message: "Please provide a valid email"},
	{Field: "password", Check: MinLength(6), Message: "Password must be at least 6 characters long"},
	{Field: "firstName", Check: NotEmpty, Message: "First name is required"},
	{Field: "lastName", Check: NotEmpty, Message: "Last name is required"},
}

var Login = Set{
	{Field: "email", Check: Email, Message: "Please provide a valid email"},
	{Field: "password", Check: NotEmpty, Message: "Password is required"},
}

var UpdateProfile = Set{
	{Field: "firstName", Optional: true, Check: NotEmpty, Message: "First name cannot be empty"},
	{Field: "lastName", Optional: true, Check: NotEmpty, Message: "Last name cannot be empty"},
	{Field: "email", Optional: true, Check: Email, Message: "Please provide a valid email"},
	{Field: "phone", Optional: true, Check: MobilePhone, Message: "Please provide a valid phone number"},
}

var CreateProduct = Set{
	{Field: "name", Check: NotEmpty, Message: "Product name is required"},
	{Field: "price", Check: FloatMin(0), Message: "Price must be a positive number"},
	{Field: "sku", Check: NotEmpty, Message: "SKU is required"},
	{Field: "categoryId", Check: IntMin(1), Message: "Valid category ID is required"},
	{Field: "stock", Optional: true, Check: IntMin(0), Message: "Stock must be a non-negative integer"},
}

var AddCartItem = Set{
	{Field: "productId", Check: IntMin(1), Message: "Valid product ID is required"},
	{Field: "quantity", Optional: true, Check: IntMin(1), Message: "Quantity must be a positive integer"},
}

var UpdateCartItem = Set{
	{Field: "quantity", Check: IntMin(1), Message: "Quantity must be a positive integer"},
}
