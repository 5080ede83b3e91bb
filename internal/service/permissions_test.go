package service

import (
	"testing"

	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
)

func TestOfferPermissions(t *testing.T) {
	seller, buyer, stranger := int64(1), int64(2), int64(99)
	p := &product.Product{ID: 10, SellerID: seller, Status: product.StatusAvailable}

	cases := []struct {
		name   string
		o      *offer.Offer
		p      *product.Product
		userID int64
		want   bool
	}{
		{"seller can act on buyer offer", &offer.Offer{BuyerID: buyer, Status: offer.StatusPending, ProposedBy: offer.RoleBuyer}, p, seller, true},
		{"buyer cannot act on own offer", &offer.Offer{BuyerID: buyer, Status: offer.StatusPending, ProposedBy: offer.RoleBuyer}, p, buyer, false},
		{"buyer can act on seller counter", &offer.Offer{BuyerID: buyer, Status: offer.StatusPending, ProposedBy: offer.RoleSeller}, p, buyer, true},
		{"stranger cannot act", &offer.Offer{BuyerID: buyer, Status: offer.StatusPending, ProposedBy: offer.RoleBuyer}, p, stranger, false},
		{"countered offer is inert", &offer.Offer{BuyerID: buyer, Status: offer.StatusCountered, ProposedBy: offer.RoleBuyer}, p, seller, false},
		{"sold product freezes offers", &offer.Offer{BuyerID: buyer, Status: offer.StatusPending, ProposedBy: offer.RoleBuyer},
			&product.Product{ID: 10, SellerID: seller, Status: product.StatusSold}, seller, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			canCounter, canAccept := OfferPermissions(tc.o, tc.p, tc.userID)
			if canCounter != tc.want || canAccept != tc.want {
				t.Fatalf("permissions = (%v, %v), want %v", canCounter, canAccept, tc.want)
			}
		})
	}
}

func TestProductPermissions(t *testing.T) {
	seller, buyer, other := int64(1), int64(2), int64(3)

	available := &product.Product{SellerID: seller, Status: product.StatusAvailable}
	canPurchase, canOffer := ProductPermissions(available, buyer, false)
	if !canPurchase || !canOffer {
		t.Fatalf("available product for buyer = (%v, %v), want (true, true)", canPurchase, canOffer)
	}

	canPurchase, canOffer = ProductPermissions(available, seller, false)
	if canPurchase || canOffer {
		t.Fatalf("own product = (%v, %v), want (false, false)", canPurchase, canOffer)
	}

	// 已有 pending 报价的买家不能再发首次报价，但仍可直接购买
	canPurchase, canOffer = ProductPermissions(available, buyer, true)
	if !canPurchase || canOffer {
		t.Fatalf("with pending offer = (%v, %v), want (true, false)", canPurchase, canOffer)
	}

	reserved := &product.Product{SellerID: seller, Status: product.StatusReserved, ReservedBy: &buyer}
	canPurchase, canOffer = ProductPermissions(reserved, buyer, false)
	if !canPurchase || canOffer {
		t.Fatalf("reserved for buyer = (%v, %v), want (true, false)", canPurchase, canOffer)
	}
	canPurchase, canOffer = ProductPermissions(reserved, other, false)
	if canPurchase || canOffer {
		t.Fatalf("reserved for someone else = (%v, %v), want (false, false)", canPurchase, canOffer)
	}

	sold := &product.Product{SellerID: seller, Status: product.StatusSold}
	canPurchase, canOffer = ProductPermissions(sold, buyer, false)
	if canPurchase || canOffer {
		t.Fatalf("sold product = (%v, %v), want (false, false)", canPurchase, canOffer)
	}
}
