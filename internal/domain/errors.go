package domain

import "errors"

// 持久层统一翻译成这两个哨兵错误，驱动相关的错误不出 repo 包
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)
