package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
	"github.com/Skotchmaster/chat_shop/services/order/internal/session"
)

const (
	cardDescriptionLimit = 200
	listLimit            = 20
)

const helpText = `What would you like to do?
/products - browse the collection
/search <text> - find a product
/cart - view your cart
/order - status of your latest order
/delete - remove your data`

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func productCard(p *models.Product, st *session.BrowseState) (string, Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Name)
	fmt.Fprintf(&b, "Price: %s\n", money(p.Price))
	fmt.Fprintf(&b, "In stock: %d\n", p.Stock)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", truncate(p.Description, cardDescriptionLimit))
	}
	fmt.Fprintf(&b, "\n%d / %d", st.Index+1, len(st.ProductIDs))
	if st.Query != "" {
		fmt.Fprintf(&b, " for %q", st.Query)
	}

	var kb Keyboard
	if len(st.ProductIDs) > 1 {
		kb = append(kb, []Button{
			{Text: "Previous", Action: Action{Kind: ActionProductPrev}},
			{Text: "Refresh", Action: Action{Kind: ActionProductRefresh}},
			{Text: "Next", Action: Action{Kind: ActionProductNext}},
		})
	}
	kb = append(kb, []Button{
		{Text: "Add to cart", Action: Action{Kind: ActionAddCart, ProductID: p.ID}},
		{Text: "Details", Action: Action{Kind: ActionProductDetail, ProductID: p.ID}},
	})
	return b.String(), kb
}

func productDetail(p *models.Product) (string, Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Name)
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	fmt.Fprintf(&b, "Price: %s\n", money(p.Price))
	fmt.Fprintf(&b, "In stock: %d\n", p.Stock)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s", p.Description)
	}
	kb := Keyboard{{{Text: "Add to cart", Action: Action{Kind: ActionAddCart, ProductID: p.ID}}}}
	return b.String(), kb
}

func productList(products []models.Product) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("Available products:\n")
	var kb Keyboard
	for i, p := range products {
		if i == listLimit {
			fmt.Fprintf(&b, "...and %d more. Use /search to narrow down.", len(products)-listLimit)
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s (%d in stock)\n", i+1, p.Name, money(p.Price), p.Stock)
		kb = append(kb, []Button{{
			Text:   "Add " + truncate(p.Name, 24),
			Action: Action{Kind: ActionAddCart, ProductID: p.ID},
		}})
	}
	return b.String(), kb
}

func cartSummary(v *service.CartView) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("Your shopping cart:\n")
	var kb Keyboard
	for _, line := range v.Lines {
		if !line.Available() {
			if line.Product != nil {
				fmt.Fprintf(&b, "- %s (no longer available) x%d\n", line.Product.Name, line.Quantity)
			} else {
				fmt.Fprintf(&b, "- (no longer available) x%d\n", line.Quantity)
			}
			kb = append(kb, []Button{{Text: "Remove unavailable item", Action: Action{Kind: ActionCartRemoveItem, ProductID: line.ProductID}}})
			continue
		}
		fmt.Fprintf(&b, "- %s: %d x %s = %s\n", line.Product.Name, line.Quantity, money(line.Product.Price), money(line.Subtotal()))
		kb = append(kb, []Button{{Text: "Remove " + truncate(line.Product.Name, 24), Action: Action{Kind: ActionCartRemoveItem, ProductID: line.ProductID}}})
	}
	fmt.Fprintf(&b, "Total: %s", money(v.Total))
	kb = append(kb,
		[]Button{{Text: "Checkout", Action: Action{Kind: ActionCartCheckout}}},
		[]Button{{Text: "Clear cart", Action: Action{Kind: ActionCartClear}}},
	)
	return b.String(), kb
}

func genderKeyboard() Keyboard {
	return Keyboard{{
		{Text: "Male", Action: Action{Kind: ActionGenderMale}},
		{Text: "Female", Action: Action{Kind: ActionGenderFemale}},
	}}
}

func methodKeyboard() Keyboard {
	return Keyboard{{
		{Text: "Send all products", Action: Action{Kind: ActionProductMethod, Method: MethodAll}},
		{Text: "Browse one by one", Action: Action{Kind: ActionProductMethod, Method: MethodBrowse}},
	}}
}

func deleteKeyboard() Keyboard {
	return Keyboard{{
		{Text: "Yes, delete", Action: Action{Kind: ActionDeleteConfirm}},
		{Text: "Cancel", Action: Action{Kind: ActionDeleteCancel}},
	}}
}
