package service

import (
	"github.com/example/gomarket/internal/datamodels/offer"
	"github.com/example/gomarket/internal/datamodels/product"
)

// OfferPermissions 计算指定用户对一条报价可执行的动作
// 纯函数：角色由 userID 与买卖双方 id 比较得出，
// 只有轮到的一方（proposedBy 不等于自己角色）才能还价或接受。
func OfferPermissions(o *offer.Offer, p *product.Product, userID int64) (canCounter, canAccept bool) {
	var userRole string
	switch userID {
	case o.BuyerID:
		userRole = offer.RoleBuyer
	case p.SellerID:
		userRole = offer.RoleSeller
	default:
		return false, false
	}
	actionable := o.Status == offer.StatusPending &&
		o.ProposedBy != userRole &&
		p.Status != product.StatusSold
	return actionable, actionable
}

// ProductPermissions 计算指定用户对一件商品可执行的动作
func ProductPermissions(p *product.Product, userID int64, hasPendingOffer bool) (canPurchase, canMakeInitialOffer bool) {
	isSeller := userID == p.SellerID
	isAvailable := p.Status == product.StatusAvailable
	isReserved := p.Status == product.StatusReserved

	canPurchase = p.Status != product.StatusSold && !isSeller &&
		(isAvailable || (isReserved && p.ReservedBy != nil && *p.ReservedBy == userID))
	canMakeInitialOffer = isAvailable && !isSeller && !hasPendingOffer
	return canPurchase, canMakeInitialOffer
}
