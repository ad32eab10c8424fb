package guard

// Route describes a navigation target and what the session must satisfy to
// reach it.
type Route struct {
	Name          string `yaml:"name"`
	Path          string `yaml:"path"`
	RequiresAuth  bool   `yaml:"requires_auth"`
	RequiresAdmin bool   `yaml:"requires_admin"`
}

func DefaultRoutes() []Route {
	return []Route{
		{Name: "Home", Path: "/"},
		{Name: "ProductList", Path: "/products"},
		{Name: "ProductDetail", Path: "/products/{id}"},
		{Name: "Cart", Path: "/cart", RequiresAuth: true},
		{Name: "OrderList", Path: "/orders", RequiresAuth: true},
		{Name: "OrderConfirm", Path: "/orders/confirm", RequiresAuth: true},
		{Name: "OrderDetail", Path: "/orders/{id}", RequiresAuth: true},
		{Name: "UserCenter", Path: "/user", RequiresAuth: true},
		{Name: "Login", Path: "/login"},
		{Name: "Register", Path: "/register"},
		{Name: "Admin", Path: "/admin", RequiresAuth: true, RequiresAdmin: true},
		{Name: "ProductManagement", Path: "/admin/products", RequiresAuth: true, RequiresAdmin: true},
		{Name: "OrderManagement", Path: "/admin/orders", RequiresAuth: true, RequiresAdmin: true},
	}
}
