package service

import (
	"errors"
	"time"

	"ledger/database"
	"ledger/models"

	"gorm.io/gorm"
)

var (
	// ErrSupplierNotFound 供应商不存在
	ErrSupplierNotFound = errors.New("供应商不存在")
	// ErrTransactionNotFound 交易流水不存在
	ErrTransactionNotFound = errors.New("交易流水不存在")
	// ErrInvalidTransactionType 流水类型非法
	ErrInvalidTransactionType = errors.New("流水类型必须为 credit 或 debit")
	// ErrInvalidAmount 金额非法
	ErrInvalidAmount = errors.New("金额必须大于 0")
)

// LedgerService 台账核心服务
// 负责维护供应商余额与交易流水之间的一致性：
// 余额恒等于期初余额加上全部 credit 流水、减去全部 debit 流水，
// 每次流水创建/删除都在同一数据库事务内完成插入（或删除）与余额调整。
type LedgerService struct{}

// NewLedgerService 创建台账核心服务
func NewLedgerService() *LedgerService {
	return &LedgerService{}
}

// CreateTransactionInput 创建流水参数
type CreateTransactionInput struct {
	SupplierID  uint
	Type        string
	Amount      float64
	Description string
	Date        time.Time
}

// CreateTransaction 创建交易流水并调整供应商余额
// 校验失败或供应商不存在时不产生任何写入。
// 插入流水与余额调整在同一事务内，余额调整使用数据库端的相对更新
// （balance = balance + delta），并发写同一供应商不会丢失更新。
func (s *LedgerService) CreateTransaction(in CreateTransactionInput) (*models.Transaction, error) {
	if !models.IsValidTransactionType(in.Type) {
		return nil, ErrInvalidTransactionType
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	txn := &models.Transaction{
		SupplierID:  in.SupplierID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, in.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return err
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		return tx.Model(&models.Supplier{}).
			Where("id = ?", supplier.ID).
			UpdateColumn("balance", gorm.Expr("balance + ?", txn.BalanceDelta())).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction 删除交易流水并冲销其余额影响
// 冲销量为创建时影响量的精确相反数。先删除流水并确认确实删到了行，
// 再调整余额：并发删除同一笔流水时，后到的一方删除影响 0 行，
// 整个事务回滚，避免同一笔流水被冲销两次。
// 供应商已被并发删除时，余额更新影响 0 行，按无操作处理而非报错。
func (s *LedgerService) DeleteTransaction(id uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.First(&txn, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		res := tx.Delete(&txn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 另一并发事务已删除这笔流水
			return ErrTransactionNotFound
		}

		return tx.Model(&models.Supplier{}).
			Where("id = ?", txn.SupplierID).
			UpdateColumn("balance", gorm.Expr("balance - ?", txn.BalanceDelta())).Error
	})
}

// DeleteSupplier 删除供应商及其全部交易流水（原子级联）
// 供应商整行被移除，流水无需逐笔冲销余额。两步在同一事务内，
// 不会出现流水已删而供应商仍在的中间状态。
func (s *LedgerService) DeleteSupplier(id uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return err
		}

		if err := tx.Where("supplier_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}

		return tx.Delete(&supplier).Error
	})
}
