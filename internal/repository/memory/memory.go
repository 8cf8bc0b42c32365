package memory

import (
	"customer_index/internal/repository"
)

var (
	_ repository.RecordStore = (*RecordStore)(nil)
	_ repository.IndexStore  = (*IndexStore)(nil)
)
