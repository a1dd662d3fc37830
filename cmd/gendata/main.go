package main

import (
	"flag"
	"fmt"
	"log"

	"rainpredict/pipeline"
)

func main() {
	outDir := flag.String("out", "data", "output directory")
	trainSize := flag.Int("train_size", 800, "number of training rows")
	testSize := flag.Int("test_size", 200, "number of test rows")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	trainPath, testPath, err := pipeline.ExtractData(*outDir, *trainSize, *testSize, *seed)
	if err != nil {
		log.Fatalf("failed to generate data: %v", err)
	}
	fmt.Printf("wrote %s (%d rows) and %s (%d rows)\n", trainPath, *trainSize, testPath, *testSize)
}
