package gatehouse

import "github.com/xraph/gatehouse/id"

// ID is the primary identifier type for all Gatehouse entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
