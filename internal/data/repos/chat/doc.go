// Package chat contains GORM repositories for threads, members,
// messages, attachments, reactions, and read receipts. All methods take
// a dbctx.Context so services can run them inside one transaction.
package chat
