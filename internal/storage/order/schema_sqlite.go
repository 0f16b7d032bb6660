package order

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS canteens (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS labs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    canteen_id  INTEGER NOT NULL REFERENCES canteens(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS seats (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    lab_id       INTEGER NOT NULL REFERENCES labs(id) ON DELETE CASCADE,
    seat_number  TEXT NOT NULL,
    UNIQUE(lab_id, seat_number)
);

CREATE TABLE IF NOT EXISTS qr_codes (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    seat_id    INTEGER NOT NULL UNIQUE REFERENCES seats(id) ON DELETE CASCADE,
    qr_id      TEXT NOT NULL UNIQUE,
    qr_image   TEXT NOT NULL DEFAULT '',
    is_active  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS menu_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    canteen_id    INTEGER NOT NULL REFERENCES canteens(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    is_available  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS item_options (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    menu_item_id  INTEGER NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
    name          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL UNIQUE,
    seat_id     INTEGER NOT NULL REFERENCES seats(id) ON DELETE CASCADE,
    item_id     INTEGER NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
    option_id   INTEGER REFERENCES item_options(id) ON DELETE SET NULL,
    status      TEXT NOT NULL DEFAULT 'NEW',
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);
`
