package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计错误和性能指标
type Monitor struct {
	mu sync.RWMutex

	// 业务统计
	OfferRequests     int64
	OffersCreated     int64
	DuplicateOffers   int64
	PurchaseRequests  int64
	PurchasesComplete int64
	VersionConflicts  int64

	// 错误统计
	DBErrors int64
	MQErrors int64

	// 时间统计
	LastConflictTime time.Time
	LastDBError      time.Time
	LastMQError      time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordOfferRequest 记录一次报价类请求
func (m *Monitor) RecordOfferRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OfferRequests++
}

// RecordOfferCreated 记录成功创建的报价
func (m *Monitor) RecordOfferCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OffersCreated++
}

// RecordDuplicateOffer 记录被去重拦下的重复报价
func (m *Monitor) RecordDuplicateOffer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicateOffers++
}

// RecordPurchaseRequest 记录一次购买请求
func (m *Monitor) RecordPurchaseRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PurchaseRequests++
}

// RecordPurchaseComplete 记录成功完成的购买
func (m *Monitor) RecordPurchaseComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PurchasesComplete++
}

// RecordVersionConflict 记录乐观锁冲突
func (m *Monitor) RecordVersionConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VersionConflicts++
	m.LastConflictTime = time.Now()
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// Snapshot 导出当前计数，供后台接口展示
func (m *Monitor) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"offer_requests":     m.OfferRequests,
		"offers_created":     m.OffersCreated,
		"duplicate_offers":   m.DuplicateOffers,
		"purchase_requests":  m.PurchaseRequests,
		"purchases_complete": m.PurchasesComplete,
		"version_conflicts":  m.VersionConflicts,
		"db_errors":          m.DBErrors,
		"mq_errors":          m.MQErrors,
		"last_conflict_time": m.LastConflictTime,
		"last_db_error":      m.LastDBError,
		"last_mq_error":      m.LastMQError,
	}
}
