//go:build mage

package main

import "fmt"

// Split cuts the source book PDF into per-part input files under PCM_split/.
func Split() error {
	fmt.Println("[split] Cut the source PDF into per-part files (PCM_part_NN_*.pdf) under PCM_split/.")
	fmt.Println("[split] Not yet implemented.")
	return nil
}
