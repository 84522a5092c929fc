package gdbm

// Convert switches the database between the plain and numsync magic
// variants. Displaced avail elements from the header's resized primary
// avail block (the numsync extension changes the header's fixed footprint)
// are folded back into the avail list at the next block boundary rather
// than dropped, unless they are too small to be worth tracking.
func (db *DB) Convert(numsync bool) error {
	if err := db.checkWritable(); err != nil {
		return err
	}
	if db.header.Magic.IsNumsync() == numsync {
		return nil
	}

	displaced := db.header.convertNumsync(numsync)
	for _, d := range displaced {
		if d.Size <= 4 {
			continue
		}
		if err := db.free(d.Offset, d.Size); err != nil {
			return err
		}
	}

	return nil
}
