/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command warehouse-bootstrap synthesises the warehouse settings file from a
// deployed backend stack's outputs.
package main

import (
	"context"
	"flag"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"

	"github.com/carverauto/feedwarehouse/pkg/config"
)

func main() {
	stackName := flag.String("stack", "", "Name of the deployed warehouse backend stack")
	outPath := flag.String("out", "", "Settings file path (defaults to the resolved config path)")
	region := flag.String("region", "", "AWS region of the backend stack")
	overwrite := flag.Bool("overwrite", false, "Overwrite an existing settings file")
	flag.Parse()

	if *stackName == "" {
		log.Fatal("the -stack flag is required")
	}

	path := *outPath
	if path == "" {
		path = config.ResolvePath()
	}

	ctx := context.Background()

	var optFns []func(*awsconfig.LoadOptions) error
	if *region != "" {
		optFns = append(optFns, awsconfig.WithRegion(*region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	client := cloudformation.NewFromConfig(cfg)

	if err := config.GenerateSettingsFile(ctx, client, *stackName, path, *overwrite); err != nil {
		log.Fatalf("Failed to generate settings file: %v", err)
	}

	log.Printf("Wrote %s from stack %s", path, *stackName)
}
