package store

import "gorm.io/gorm"

func gormExprNumTxsPlusOne() interface{} {
	return gorm.Expr("num_txs + 1")
}

func gormExprAdd(column string, delta int64) interface{} {
	if delta >= 0 {
		return gorm.Expr(column+" + ?", delta)
	}
	return gorm.Expr(column+" - ?", -delta)
}
