// Package xmerge implements a streaming ordered-merge pipeline stage: given
// k locally-sorted page sequences arriving asynchronously from remote
// producers, it emits a single globally-sorted sequence of pages while
// honoring memory accounting, cooperative yield, and backpressure.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge
